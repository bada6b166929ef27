package product

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memAdminRepo struct {
	byID map[string]Product
	err  error
}

func (m *memAdminRepo) Create(_ context.Context, p *Product) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.byID[p.ID]; ok {
		return ErrAlreadyExists
	}
	m.byID[p.ID] = *p
	return nil
}

func (m *memAdminRepo) Update(_ context.Context, p *Product) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.byID[p.ID]; !ok {
		return ErrNotFound
	}
	m.byID[p.ID] = *p
	return nil
}

func (m *memAdminRepo) Delete(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.byID[id]; !ok {
		return ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type recordingInvalidator struct {
	ids []string
	err error
}

func (r *recordingInvalidator) Invalidate(_ context.Context, ids ...string) error {
	r.ids = append(r.ids, ids...)
	return r.err
}

func newTestAdmin() (*Admin, *memAdminRepo, *recordingInvalidator) {
	repo := &memAdminRepo{byID: map[string]Product{}}
	inv := &recordingInvalidator{}
	return NewAdmin(repo, inv), repo, inv
}

func conejito() *Product {
	return &Product{
		ID:    "conejito",
		Name:  "Conejito de lana",
		Price: decimal.NewNullDecimal(decimal.RequireFromString("250.00")),
	}
}

func TestAdmin_Lifecycle(t *testing.T) {
	ctx := context.Background()
	a, repo, inv := newTestAdmin()

	require.NoError(t, a.Create(ctx, conejito()))
	require.ErrorIs(t, a.Create(ctx, conejito()), ErrAlreadyExists)

	p := conejito()
	p.Name = "Conejito grande"
	require.NoError(t, a.Update(ctx, p))
	assert.Equal(t, "Conejito grande", repo.byID["conejito"].Name)

	require.NoError(t, a.Delete(ctx, "conejito"))
	require.ErrorIs(t, a.Delete(ctx, "conejito"), ErrNotFound)

	assert.Equal(t, []string{"conejito", "conejito", "conejito"}, inv.ids)
}

func TestAdmin_RejectsInvalid(t *testing.T) {
	a, repo, inv := newTestAdmin()

	p := conejito()
	p.Name = ""
	require.ErrorIs(t, a.Create(context.Background(), p), ErrInvalidProduct)
	assert.Empty(t, repo.byID)
	assert.Empty(t, inv.ids)
}

func TestAdmin_UpdateMissing(t *testing.T) {
	a, _, _ := newTestAdmin()
	require.ErrorIs(t, a.Update(context.Background(), conejito()), ErrNotFound)
}

func TestAdmin_InvalidateFailureIgnored(t *testing.T) {
	a, repo, inv := newTestAdmin()
	inv.err = errors.New("redis down")

	require.NoError(t, a.Create(context.Background(), conejito()))
	assert.Contains(t, repo.byID, "conejito")
}

func TestAdmin_RepositoryFailure(t *testing.T) {
	a, repo, _ := newTestAdmin()
	repo.err = errors.New("db down")

	err := a.Create(context.Background(), conejito())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create product")
}

func TestAdmin_NilCache(t *testing.T) {
	a := NewAdmin(&memAdminRepo{byID: map[string]Product{}}, nil)
	require.NoError(t, a.Create(context.Background(), conejito()))
}
