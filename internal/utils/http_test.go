package utils

import (
	"net/http/httptest"
	"testing"
)

func TestParsePagination_Defaults(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/animals", nil)

	page, limit, offset := ParsePagination(req)
	if page != 1 || limit != 10 || offset != 0 {
		t.Errorf("got page=%d limit=%d offset=%d, want 1/10/0", page, limit, offset)
	}
}

func TestParsePagination_Explicit(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/animals?page=3&limit=25", nil)

	page, limit, offset := ParsePagination(req)
	if page != 3 || limit != 25 || offset != 50 {
		t.Errorf("got page=%d limit=%d offset=%d, want 3/25/50", page, limit, offset)
	}
}

func TestParsePagination_CapsAndGarbage(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/animals?page=-1&limit=5000", nil)

	page, limit, _ := ParsePagination(req)
	if page != 1 {
		t.Errorf("negative page should fall back to 1, got %d", page)
	}
	if limit != 100 {
		t.Errorf("limit should cap at 100, got %d", limit)
	}

	req = httptest.NewRequest("GET", "/api/animals?page=abc&limit=xyz", nil)
	page, limit, _ = ParsePagination(req)
	if page != 1 || limit != 10 {
		t.Errorf("non-numeric params should fall back to defaults, got %d/%d", page, limit)
	}
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(95, 2, 10)
	if p.TotalItems != 95 || p.TotalPages != 10 || p.CurrentPage != 2 || p.ItemsPerPage != 10 {
		t.Errorf("unexpected envelope: %+v", p)
	}

	p = NewPagination(0, 1, 10)
	if p.TotalPages != 0 {
		t.Errorf("empty result should have 0 pages, got %d", p.TotalPages)
	}

	p = NewPagination(100, 1, 10)
	if p.TotalPages != 10 {
		t.Errorf("exact multiple should not round up, got %d", p.TotalPages)
	}
}
