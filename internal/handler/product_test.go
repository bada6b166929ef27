package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/modelado-pao/internal/domain/product"
)

func TestListProducts(t *testing.T) {
	f := newFixture(t, Config{ImageBaseURL: "https://img.example.com/"})
	f.products.products = []product.Product{
		testProduct("p1", "Conejito", "10.00"),
		testProduct("p2", "Gatito", "7.5"),
	}

	rec := f.do(t, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"price":7.50`)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Conejito", got[0]["name"])

	img := got[0]["image"].(map[string]any)
	assert.Equal(t, "https://img.example.com/images/thumb.jpg", img["thumbnail"])
	assert.Equal(t, "https://img.example.com/images/mobile.jpg", img["mobile"])
	assert.Equal(t, "https://cdn.example.com/desktop.jpg", img["desktop"])

	// Stored products are not rewritten.
	assert.Equal(t, "images/thumb.jpg", f.products.products[0].Image.Thumbnail)
}

func TestListProducts_Error(t *testing.T) {
	f := newFixture(t, Config{})
	f.products.err = errors.New("db down")

	rec := f.do(t, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "internal", body["error"])
	assert.Equal(t, "internal server error", body["message"])
}

func TestGetProduct(t *testing.T) {
	f := newFixture(t, Config{})
	f.products.products = []product.Product{testProduct("p1", "Conejito", "10")}

	rec := f.do(t, http.MethodGet, "/api/products/p1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "p1", body["id"])
	assert.Equal(t, "images/thumb.jpg", body["image"].(map[string]any)["thumbnail"])

	rec = f.do(t, http.MethodGet, "/api/products/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeBody(t, rec)["error"])
}

func TestAdminProducts(t *testing.T) {
	f := newFixture(t, Config{})

	rec := f.admin(t, http.MethodPost, "/api/admin/products",
		`{"id":"p9","name":"Zorrito","price":"12.50","category":"figuras","image":{"thumbnail":"t.jpg"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotNil(t, f.productAdmin.created)
	assert.Equal(t, "p9", f.productAdmin.created.ID)
	assert.True(t, d("12.50").Equal(f.productAdmin.created.Price.Decimal))

	rec = f.admin(t, http.MethodPut, "/api/admin/products/p9", `{"name":"Zorrito II","price":13}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "p9", f.productAdmin.updated.ID)
	assert.Equal(t, "Zorrito II", f.productAdmin.updated.Name)

	rec = f.admin(t, http.MethodPut, "/api/admin/products/p9", `{"id":"other","name":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.admin(t, http.MethodDelete, "/api/admin/products/p9", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "p9", f.productAdmin.deleted)
}

func TestAdminProducts_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{name: "invalid", err: errors.Wrap(product.ErrInvalidProduct, "name is required"), wantStatus: http.StatusBadRequest, wantKind: "invalid_argument"},
		{name: "duplicate", err: product.ErrAlreadyExists, wantStatus: http.StatusConflict, wantKind: "already_exists"},
		{name: "missing", err: product.ErrNotFound, wantStatus: http.StatusNotFound, wantKind: "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Config{})
			f.productAdmin.err = tt.err

			rec := f.admin(t, http.MethodPost, "/api/admin/products", `{"id":"p1","name":"x"}`)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantKind, decodeBody(t, rec)["error"])
		})
	}
}
