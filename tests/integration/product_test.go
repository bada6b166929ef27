//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestListProducts(t *testing.T) {
	resp := doGet(t, "/api/products")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	products := decodeJSON[[]productResponse](t, resp)
	if len(products) != seededProducts {
		t.Fatalf("expected %d products, got %d", seededProducts, len(products))
	}
}

func TestListProducts_Fields(t *testing.T) {
	resp := doGet(t, "/api/products")
	defer resp.Body.Close()

	products := decodeJSON[[]productResponse](t, resp)

	var bunny, custom *productResponse
	for i := range products {
		switch products[i].ID {
		case "conejito-jardin":
			bunny = &products[i]
		case "pedido-personalizado":
			custom = &products[i]
		}
	}

	if bunny == nil {
		t.Fatal("product conejito-jardin not found")
	}
	if bunny.Name != "Conejito de jardín" {
		t.Errorf("name: got %q, want %q", bunny.Name, "Conejito de jardín")
	}
	if bunny.Price == nil || *bunny.Price != 12.4 {
		t.Errorf("price: got %v, want 12.4", bunny.Price)
	}
	if bunny.Category != "figuras" {
		t.Errorf("category: got %q, want %q", bunny.Category, "figuras")
	}
	if bunny.Image.Thumbnail == "" || bunny.Image.Desktop == "" {
		t.Errorf("image fields are empty: %+v", bunny.Image)
	}

	if custom == nil {
		t.Fatal("product pedido-personalizado not found")
	}
	if custom.Price != nil {
		t.Errorf("price: got %v, want null", *custom.Price)
	}
}

func TestGetProduct(t *testing.T) {
	resp := doGet(t, "/api/products/gatito-dormilon")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	product := decodeJSON[productResponse](t, resp)
	if product.Name != "Gatito dormilón" {
		t.Errorf("name: got %q, want %q", product.Name, "Gatito dormilón")
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	resp := doGet(t, "/api/products/unicornio")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	errResp := decodeJSON[errorResponse](t, resp)
	if errResp.Error != "not_found" {
		t.Errorf("error kind: got %q, want not_found", errResp.Error)
	}
}

func TestAdminProduct_Lifecycle(t *testing.T) {
	body := map[string]any{
		"id":       "tortuga-test",
		"name":     "Tortuga de prueba",
		"price":    "9.90",
		"category": "figuras",
		"image": map[string]string{
			"thumbnail": "t.jpg", "mobile": "m.jpg", "tablet": "tb.jpg", "desktop": "d.jpg",
		},
	}

	resp := doAdmin(t, http.MethodPost, "/api/admin/products", body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}

	body["price"] = "11.00"
	resp = doAdmin(t, http.MethodPut, "/api/admin/products/tortuga-test", body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", resp.StatusCode)
	}

	resp = doGet(t, "/api/products/tortuga-test")
	got := decodeJSON[productResponse](t, resp)
	resp.Body.Close()
	if got.Price == nil || *got.Price != 11 {
		t.Errorf("price after update: got %v, want 11", got.Price)
	}

	resp = doAdmin(t, http.MethodDelete, "/api/admin/products/tortuga-test", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}

	resp = doGet(t, "/api/products/tortuga-test")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("after delete: expected 404, got %d", resp.StatusCode)
	}
}
