package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/modelado-pao/internal/domain/product"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Products.List(r.Context())
	if err != nil {
		fail(r.Context(), w, errors.Wrap(err, "list products"))
		return
	}
	for i := range products {
		products[i] = h.withImageBase(products[i])
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		product.EncodeList(e, products)
	})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.Products.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.withImageBase(*p).Encode)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	p, err := decodeProduct(w, r)
	if err != nil {
		fail(r.Context(), w, err)
		return
	}
	if err := h.ProductAdmin.Create(r.Context(), p); err != nil {
		fail(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.withImageBase(*p).Encode)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	p, err := decodeProduct(w, r)
	if err != nil {
		fail(r.Context(), w, err)
		return
	}
	id := chi.URLParam(r, "id")
	if p.ID != "" && p.ID != id {
		fail(r.Context(), w, badRequest("body id %q does not match path id %q", p.ID, id))
		return
	}
	p.ID = id

	if err := h.ProductAdmin.Update(r.Context(), p); err != nil {
		fail(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.withImageBase(*p).Encode)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.ProductAdmin.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeProduct(w http.ResponseWriter, r *http.Request) (*product.Product, error) {
	d, err := readBody(w, r)
	if err != nil {
		return nil, err
	}
	var p product.Product
	if err := p.Decode(d); err != nil {
		return nil, badRequest("invalid product: %v", err)
	}
	return &p, nil
}

// withImageBase prefixes relative image paths with the configured base URL.
func (h *Handler) withImageBase(p product.Product) product.Product {
	if h.imageBaseURL == "" {
		return p
	}
	prefix := func(path string) string {
		if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
			return path
		}
		return strings.TrimSuffix(h.imageBaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
	}
	p.Image = product.Image{
		Thumbnail: prefix(p.Image.Thumbnail),
		Mobile:    prefix(p.Image.Mobile),
		Tablet:    prefix(p.Image.Tablet),
		Desktop:   prefix(p.Image.Desktop),
	}
	return p
}
