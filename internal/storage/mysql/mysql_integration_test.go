//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"travel_booking/internal/domain"
	mysqlrepo "travel_booking/internal/storage/mysql"
)

func migrationsDir() string {
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return filepath.Join("..", "..", "..", "migrations")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir()

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir %s: %v", dir, err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("dockertest: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker not reachable: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=booking",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/booking?parseTime=true&multiStatements=true&charset=utf8mb4&loc=UTC",
		resource.GetPort("3306/tcp"))

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

func TestRepo_MySQL_RentCarRoundTrip(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()
	k := domain.RentalCars

	created, err := repo.Create(ctx, k, &domain.RentalCar{
		CarName: "Civic", Model: "2022", Description: "sedan", DriverName: "Ali",
		Location: "Lahore", Status: domain.StatusAvailable, Image: "/uploads/rent_cars/a.jpg",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	list, err := repo.List(ctx, k)
	if err != nil || len(list) != 1 || list[0].GetID() != created.GetID() {
		t.Fatalf("List after create: %v %+v", err, list)
	}

	upd, err := repo.Update(ctx, k, created.GetID(), domain.Patch{"status": "Booked"})
	if err != nil || upd == nil || upd.Get("status") != "Booked" || upd.Get("driverName") != "Ali" {
		t.Fatalf("Update: %v %+v", err, upd)
	}

	missing, err := repo.Update(ctx, k, "00000000-0000-0000-0000-000000000000", domain.Patch{"status": "Booked"})
	if err != nil || missing != nil {
		t.Fatalf("Update missing: %v %+v", err, missing)
	}

	if err := repo.Delete(ctx, k, created.GetID()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, k, created.GetID()); err != nil {
		t.Fatalf("Delete twice: %v", err)
	}
	list, _ = repo.List(ctx, k)
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d", len(list))
	}
}
