package migration

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/souq/pkg/database"
)

type widget struct {
	ID   uint
	Name string
}

type createWidgets struct{}

func (createWidgets) Up(db *gorm.DB) error   { return db.AutoMigrate(&widget{}) }
func (createWidgets) Down(db *gorm.DB) error { return db.Migrator().DropTable(&widget{}) }

type addWidgetIndex struct{}

func (addWidgetIndex) Up(db *gorm.DB) error {
	return db.Exec("CREATE INDEX idx_widgets_name ON widgets (name)").Error
}
func (addWidgetIndex) Down(db *gorm.DB) error {
	return db.Exec("DROP INDEX idx_widgets_name").Error
}

func init() {
	Register("20240101000001_create_widgets", createWidgets{})
	Register("20240101000002_add_widget_index", addWidgetIndex{})
}

func TestRunRollbackStatus(t *testing.T) {
	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "migrate.db"), database.Options{MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })

	ctx := context.Background()
	var out bytes.Buffer
	r := New(db, &out)

	n, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, db.Migrator().HasTable("widgets"))
	assert.Contains(t, out.String(), "Migrated:  20240101000002_add_widget_index")

	n, err = r.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	status, err := r.Status(ctx)
	require.NoError(t, err)
	require.Len(t, status, 2)
	assert.Equal(t, Status{Name: "20240101000001_create_widgets", Ran: true, Batch: 1}, status[0])

	n, err = r.Rollback(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.False(t, db.Migrator().HasTable("widgets"))

	status, err = r.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status[0].Ran)
}

func TestRegisterDuplicatePanics(t *testing.T) {
	assert.Panics(t, func() { Register("20240101000001_create_widgets", createWidgets{}) })
}
