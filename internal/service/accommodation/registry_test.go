package accommodation

import (
	"errors"
	"strings"
	"testing"

	"github.com/uma-arai/sbcntr-stay/internal/model"
)

var testPNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func testPhoto() *model.Photo {
	return &model.Photo{FileName: "room.png", Data: testPNG}
}

func TestRegistry_AddAssignsSequentialIDs(t *testing.T) {
	r := NewRegistry()

	for want := 1; want <= 3; want++ {
		p, err := r.Add(model.PropertyInput{Name: "Flat", Price: 100, Photo: testPhoto()})
		if err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		if p.ID != want {
			t.Errorf("Add() id = %d, want %d", p.ID, want)
		}
		if p.OwnerID != ownerID {
			t.Errorf("Add() owner id = %d, want %d", p.OwnerID, ownerID)
		}
		if !strings.HasPrefix(p.PhotoRef, "blob:") {
			t.Errorf("Add() photo ref = %q, want blob: prefix", p.PhotoRef)
		}
	}
}

func TestRegistry_AddDefaults(t *testing.T) {
	r := NewRegistry()
	p, err := r.Add(model.PropertyInput{Name: "Flat A", Price: 100, Photo: testPhoto()})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if p.Amenities != "N/A" {
		t.Errorf("Add() amenities = %q, want N/A", p.Amenities)
	}
	if p.Capacity != 1 {
		t.Errorf("Add() capacity = %d, want 1", p.Capacity)
	}
}

func TestRegistry_AddValidationHasNoSideEffect(t *testing.T) {
	r := NewRegistry()
	_, err := r.Add(model.PropertyInput{Name: "Flat A", Price: 100})
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("Add() error = %v, want ErrValidation", err)
	}
	if got := len(r.List()); got != 0 {
		t.Errorf("List() len = %d, want 0", got)
	}

	p, err := r.Add(model.PropertyInput{Name: "Flat A", Price: 100, Photo: testPhoto()})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if p.ID != 1 {
		t.Errorf("Add() after failure id = %d, want 1", p.ID)
	}
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()
	r.Add(model.PropertyInput{Name: "Flat A", Price: 100, Photo: testPhoto()})

	if p, err := r.Get(1); err != nil || p.Name != "Flat A" {
		t.Errorf("Get(1) = %+v, %v", p, err)
	}
	if _, err := r.Get(2); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Get(2) error = %v, want ErrNotFound", err)
	}
}
