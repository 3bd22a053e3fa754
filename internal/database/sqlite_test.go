package database

import (
	"path/filepath"
	"testing"
)

type widget struct {
	ID   string `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex"`
}

func TestOpen_Memory(t *testing.T) {
	db, err := Open(MemoryPath, false, &widget{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer Close(db)

	if err := db.Create(&widget{ID: "1", Name: "a"}).Error; err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	var count int64
	if err := db.Model(&widget{}).Count(&count).Error; err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestOpen_FileSharedByTwoHandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")

	first, err := Open(path, false, &widget{})
	if err != nil {
		t.Fatalf("Open() first error = %v", err)
	}
	defer Close(first)

	second, err := Open(path, false, &widget{})
	if err != nil {
		t.Fatalf("Open() second error = %v", err)
	}
	defer Close(second)

	if err := first.Create(&widget{ID: "1", Name: "a"}).Error; err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	var got widget
	if err := second.First(&got, "id = ?", "1").Error; err != nil {
		t.Fatalf("First() error = %v", err)
	}
	if got.Name != "a" {
		t.Errorf("Name = %q, want %q", got.Name, "a")
	}
}

func TestClose_Nil(t *testing.T) {
	if err := Close(nil); err != nil {
		t.Errorf("Close(nil) error = %v", err)
	}
}
