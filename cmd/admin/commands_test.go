package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"travel_booking/internal/adapters/bookingapi"
	httpserver "travel_booking/internal/adapters/http_server"
	"travel_booking/internal/adapters/images"
	"travel_booking/internal/app"
	"travel_booking/internal/domain"
	"travel_booking/internal/storage/memory"
)

var gif = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\x00\x00\x00\xff\xff\xff,\x00\x00\x00\x00\x01\x00\x01\x00\x00\x02\x02D\x01\x00;")

func newClient(t *testing.T) *bookingapi.Client {
	t.Helper()
	store := memory.New()
	imgs, err := images.NewLocal(t.TempDir(), "")
	require.NoError(t, err)
	srv := httpserver.New(5 * time.Second)
	srv.MountHandlers(&httpserver.Handlers{
		Q: app.NewQueryService(store, nil, 0),
		C: app.NewCommandService(store, imgs, nil),
	})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)

	cl, err := bookingapi.New(ts.URL, 100, 2*time.Second)
	require.NoError(t, err)
	return cl
}

func TestRun_AddEditDelete(t *testing.T) {
	ctx := context.Background()
	cl := newClient(t)
	dir := t.TempDir()
	img := filepath.Join(dir, "civic.gif")
	require.NoError(t, os.WriteFile(img, gif, 0o600))

	var out bytes.Buffer
	err := run(ctx, cl, []string{"rentCar", "add",
		"carName=Civic", "model=2022", "description=sedan", "driverName=Ali",
		"location=Lahore", "status=Available", "-image", img}, &out)
	require.NoError(t, err)
	require.Contains(t, out.String(), "Car created: ")
	id := strings.TrimSpace(strings.TrimPrefix(out.String(), "Car created: "))

	out.Reset()
	require.NoError(t, run(ctx, cl, []string{"rentCar", "edit", id, "status=Booked"}, &out))
	assert.Contains(t, out.String(), "Car updated: "+id)

	out.Reset()
	require.NoError(t, run(ctx, cl, []string{"rentCar", "show", id}, &out))
	assert.Contains(t, out.String(), "Booked")
	assert.Contains(t, out.String(), "Civic")

	out.Reset()
	require.NoError(t, run(ctx, cl, []string{"rentCar", "list"}, &out))
	assert.Contains(t, out.String(), id)
	assert.Contains(t, out.String(), "Car name")

	out.Reset()
	require.NoError(t, run(ctx, cl, []string{"rentCar", "delete", id}, &out))
	assert.Equal(t, "Car deleted successfully\n", out.String())

	list, err := cl.List(ctx, domain.RentalCars)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRun_AddWithoutImageFailsLocally(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), newClient(t), []string{"hotels", "add", "name=Pearl"}, &out)

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.Has("image"))
	assert.True(t, ve.Has("location"))
}

func TestRun_ExportAll(t *testing.T) {
	ctx := context.Background()
	cl := newClient(t)
	_, err := cl.Create(ctx, domain.Hotels, map[string]string{
		"name": "Pearl", "description": "sea view", "location": "Karachi",
		"status": "Available", "image": "https://cdn.example.com/p.png",
	}, nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "catalog.xlsx")
	var out bytes.Buffer
	require.NoError(t, run(ctx, cl, []string{"all", "export", path}, &out))
	assert.Contains(t, out.String(), "exported 1 records")

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"hotels", "rentCar"}, f.GetSheetList())
	rows, err := f.GetRows("hotels")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Pearl", rows[1][1])
}

func TestRun_Usage(t *testing.T) {
	cl := newClient(t)
	for _, args := range [][]string{
		nil,
		{"hotels"},
		{"hotels", "frobnicate"},
		{"hotels", "show"},
		{"all", "list"},
	} {
		err := run(context.Background(), cl, args, &bytes.Buffer{})
		assert.ErrorIs(t, err, errUsage, "args %v", args)
	}
}

func TestParseAssignments(t *testing.T) {
	vals, img, err := parseAssignments([]string{"-image", "a.png", "name=Pearl", "description=a=b"})
	require.NoError(t, err)
	assert.Equal(t, "a.png", img)
	assert.Equal(t, map[string]string{"name": "Pearl", "description": "a=b"}, vals)

	_, _, err = parseAssignments([]string{"oops"})
	assert.Error(t, err)
	_, _, err = parseAssignments([]string{"-image"})
	assert.Error(t, err)
}
