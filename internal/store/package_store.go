package store

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/studyhall/studyhall-gateway/internal/model"
	"github.com/studyhall/studyhall-gateway/internal/upstream"
)

// PackageStore owns the purchasable-package catalog slices. Payment
// processing is upstream-only; the gateway just mirrors the catalog.
type PackageStore struct {
	api    *upstream.Client
	list   Slice[[]model.Package]
	detail Slice[*model.Package]
	log    zerolog.Logger
}

// NewPackageStore creates a PackageStore.
func NewPackageStore(api *upstream.Client, log zerolog.Logger) *PackageStore {
	return &PackageStore{
		api: api,
		log: log.With().Str("component", "package_store").Logger(),
	}
}

// FetchList loads the package catalog.
func (st *PackageStore) FetchList(ctx context.Context) ([]model.Package, error) {
	seq := st.list.Begin()
	packages, err := st.api.ListPackages(ctx)
	if err != nil {
		st.list.Reject(seq, err)
		return nil, err
	}
	st.list.Resolve(seq, packages)
	return packages, nil
}

// FetchByID loads one package.
func (st *PackageStore) FetchByID(ctx context.Context, id string) (*model.Package, error) {
	seq := st.detail.Begin()
	pkg, err := st.api.GetPackage(ctx, id)
	if err != nil {
		st.detail.Reject(seq, err)
		return nil, err
	}
	st.detail.Resolve(seq, pkg)
	return pkg, nil
}

// ListState exposes the list slice tuple.
func (st *PackageStore) ListState() State[[]model.Package] {
	return st.list.State()
}

// DetailState exposes the detail slice tuple.
func (st *PackageStore) DetailState() State[*model.Package] {
	return st.detail.State()
}

func (st *PackageStore) seedList(packages []model.Package) {
	st.list.Seed(packages)
}

func (st *PackageStore) listData() []model.Package {
	return st.list.State().Data
}
