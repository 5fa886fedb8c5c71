package mysql

import (
	"fmt"
	"strings"

	"travel_booking/internal/domain"
)

// Queries are built from the kind's field list so both tables share one
// code path. Column order always follows k.Fields.

func columns(k *domain.Kind) []string {
	cols := make([]string, 0, len(k.Fields))
	for _, f := range k.Fields {
		cols = append(cols, "`"+f.Column+"`")
	}
	return cols
}

func selectSQL(k *domain.Kind) string {
	return fmt.Sprintf("SELECT `id`, %s, `created_at`, `updated_at` FROM `%s`",
		strings.Join(columns(k), ", "), k.Collection)
}

func listSQL(k *domain.Kind) string {
	return selectSQL(k) + " ORDER BY `seq`"
}

func getSQL(k *domain.Kind) string {
	return selectSQL(k) + " WHERE `id` = ?"
}

func insertSQL(k *domain.Kind) string {
	cols := columns(k)
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)+3), ", ")
	return fmt.Sprintf("INSERT INTO `%s` (`id`, %s, `created_at`, `updated_at`) VALUES (%s)",
		k.Collection, strings.Join(cols, ", "), marks)
}

// updateSQL sets only the given fields plus updated_at. It also returns the
// field names in placeholder order.
func updateSQL(k *domain.Kind, p domain.Patch) (string, []string) {
	var sets, names []string
	for _, f := range k.Fields {
		if _, ok := p[f.Name]; !ok {
			continue
		}
		sets = append(sets, "`"+f.Column+"` = ?")
		names = append(names, f.Name)
	}
	sets = append(sets, "`updated_at` = ?")
	return fmt.Sprintf("UPDATE `%s` SET %s WHERE `id` = ?", k.Collection, strings.Join(sets, ", ")), names
}

func deleteSQL(k *domain.Kind) string {
	return fmt.Sprintf("DELETE FROM `%s` WHERE `id` = ?", k.Collection)
}
