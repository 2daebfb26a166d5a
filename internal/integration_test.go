package internal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glucose-levels-backend/config"
	"glucose-levels-backend/internal/api"
	"glucose-levels-backend/internal/db"
	"glucose-levels-backend/internal/ingest"
	"glucose-levels-backend/internal/model"
	"glucose-levels-backend/internal/service"
	"glucose-levels-backend/internal/store"
)

// TestImportThenQuery imports a seed directory and reads the result back
// through the HTTP API.
func TestImportThenQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Database.DSN = filepath.Join(t.TempDir(), "data", "glucose.db")
	cfg.Database.LogLevel = "silent"
	cfg.Server.RateLimitPerMinute = 6000
	cfg.Server.RateLimitBurst = 100
	cfg.Import.Workers = 2

	gormDB, err := db.Init(&cfg.Database)
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	seedDir := t.TempDir()
	header := "Glukosewert,Erstellt am,04-08-2024 12:00,Erstellt von,someone\n" +
		"Gerät,Seriennummer,Gerätezeitstempel,Aufzeichnungstyp,Glukosewert-Verlauf mg/dL\n"
	files := map[string]string{
		"1.csv": header +
			"FreeStyle,SN1,04-08-2024 10:00,0,90\n" +
			"FreeStyle,SN1,04-08-2024 11:00,0,110\n" +
			"FreeStyle,SN1,04-08-2024 12:00,0,n/a\n",
		"2.csv": header +
			"FreeStyle,SN2,04-08-2024 10:00,0,120\n" +
			"FreeStyle,SN2,garbage,0,130\n",
		"3.csv": header +
			"FreeStyle,SN3,04-08-2024 09:30,0,101\n",
		"README.md": "# seed data\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(seedDir, name), []byte(content), 0o644))
	}

	appStore := store.NewGormStore(gormDB, store.WithBatchSize(cfg.Import.BatchSize))
	summary, err := ingest.NewService(cfg.Import, appStore).ImportDirectory(context.Background(), seedDir)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.FilesImported)
	assert.Equal(t, 1, summary.FilesFailed)
	assert.Equal(t, 1, summary.FilesSkipped)
	assert.Equal(t, 4, summary.RowsImported)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "2.csv", summary.Failures[0].File)

	router := api.NewRouter(cfg.Server, appStore, service.NewLevelService(appStore, cfg.Query))

	get := func(target string) []model.GlucoseLevel {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var levels []model.GlucoseLevel
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &levels))
		return levels
	}

	levels := get("/api/v1/levels?user_id=1&sort_by=timestamp&sort_order=desc")
	require.Len(t, levels, 3)
	assert.True(t, time.Date(2024, 8, 4, 12, 0, 0, 0, time.UTC).Equal(levels[0].Timestamp))
	assert.Equal(t, 0.0, levels[0].GlucoseValue)
	assert.Equal(t, 110.0, levels[1].GlucoseValue)
	assert.Equal(t, 90.0, levels[2].GlucoseValue)
	for _, l := range levels {
		assert.Equal(t, "1", l.UserID)
		require.NotNil(t, l.SerialNumber)
		assert.Equal(t, "SN1", *l.SerialNumber)
	}

	assert.Empty(t, get("/api/v1/levels?user_id=2"))

	window := get("/api/v1/levels?user_id=1&start_timestamp=2024-08-04T10:30:00Z&stop_timestamp=2024-08-04T12:00:00Z")
	require.Len(t, window, 2)
	assert.Equal(t, 110.0, window[0].GlucoseValue)

	three := get("/api/v1/levels?user_id=3")
	require.Len(t, three, 1)
	assert.Equal(t, 101.0, three[0].GlucoseValue)
}
