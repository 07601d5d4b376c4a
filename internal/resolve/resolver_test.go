package resolve

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/itbi-consulta/internal/db"
	"github.com/itbi-consulta/internal/logger"
	"github.com/itbi-consulta/internal/metrics"
	"github.com/itbi-consulta/internal/model"
	"github.com/itbi-consulta/internal/normalize"
	"github.com/itbi-consulta/internal/store"
)

const table = "imoveis_sp"

type ResolverSuite struct {
	suite.Suite
	ctx      context.Context
	conn     *db.Connection
	store    *store.Store
	metrics  *metrics.Metrics
	resolver *Resolver
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.ctx = context.Background()
	conn, err := db.Open(s.ctx, db.DriverSQLite, filepath.Join(s.T().TempDir(), "resolve.db"))
	s.Require().NoError(err)
	s.conn = conn
	s.store = store.New(conn)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.resolver = NewResolver(s.store, table, logger.Discard(), s.metrics)
}

func (s *ResolverSuite) TearDownTest() {
	s.Require().NoError(s.conn.Close())
}

func (s *ResolverSuite) load() {
	props := []model.Property{
		{TaxpayerID: "1", StreetName: "RUA A", HouseNumber: 10, BuiltArea: 120, FormattedAddress: "RUA A, 10"},
		{TaxpayerID: "2", StreetName: "RUA A", HouseNumber: 10, Complement: "APTO 2", BuiltArea: 75, FormattedAddress: "RUA A, 10 APTO 2"},
		{TaxpayerID: "3", StreetName: "RUA AUGUSTA", HouseNumber: 1500, Complement: "APTO 12", BuiltArea: 64.5, FormattedAddress: "RUA AUGUSTA, 1500 APTO 12"},
	}
	s.Require().NoError(store.Replace(s.ctx, s.store, table, store.Properties, props))
}

func (s *ResolverSuite) TestFirstMatchInStoreOrder() {
	s.load()
	res := s.resolver.Resolve(s.ctx, Lookup{Street: "RUA A", Number: 10})
	s.True(res.Found)
	s.Equal(120.0, res.BuiltArea)
	s.Require().NotNil(res.Property)
	s.Equal("1", res.Property.TaxpayerID)
}

func (s *ResolverSuite) TestComplementNarrowsMatch() {
	s.load()
	res := s.resolver.Resolve(s.ctx, Lookup{Street: "rua a", Number: 10, Complement: "apto 2"})
	s.True(res.Found)
	s.Equal(75.0, res.BuiltArea)
}

func (s *ResolverSuite) TestNumberZeroIgnoresNumber() {
	s.load()
	res := s.resolver.Resolve(s.ctx, Lookup{Street: "AUGUSTA"})
	s.True(res.Found)
	s.Equal(64.5, res.BuiltArea)
}

func (s *ResolverSuite) TestNotFound() {
	s.load()
	res := s.resolver.Resolve(s.ctx, Lookup{Street: "RUA A", Number: 11})
	s.False(res.Found)
	s.Equal(NoticeNotFound, res.Notice)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Resolutions.WithLabelValues("not_found")))
}

func (s *ResolverSuite) TestMissingTable() {
	res := s.resolver.Resolve(s.ctx, Lookup{Street: "RUA A", Number: 10})
	s.False(res.Found)
	s.Equal(NoticeNotLoaded, res.Notice)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Resolutions.WithLabelValues("unavailable")))
}

func (s *ResolverSuite) TestClosedStoreIsNotFound() {
	s.load()
	s.Require().NoError(s.conn.Close())
	res := s.resolver.Resolve(s.ctx, Lookup{Street: "RUA A", Number: 10})
	s.False(res.Found)
	s.NotEmpty(res.Notice)

	conn, err := db.Open(s.ctx, db.DriverSQLite, ":memory:")
	s.Require().NoError(err)
	s.conn = conn
}

func (s *ResolverSuite) TestEmptyLookup() {
	s.load()
	res := s.resolver.Resolve(s.ctx, Lookup{Street: "  "})
	s.False(res.Found)
	s.Equal(NoticeNoAddress, res.Notice)
}

func (s *ResolverSuite) TestResolveText() {
	s.load()
	res := s.resolver.ResolveText(s.ctx, "R. Augusta, 1500 apto 12")
	s.True(res.Found)
	s.Equal(64.5, res.BuiltArea)
	s.Require().NotNil(res.Parsed)
	s.Equal("AUGUSTA", res.Parsed.Street)
}

func (s *ResolverSuite) TestResolveTextAccentedStreet() {
	props := []model.Property{
		{TaxpayerID: "9", StreetName: normalize.CleanText("Praça da Sé"), HouseNumber: 100, BuiltArea: 80},
	}
	s.Require().NoError(store.Replace(s.ctx, s.store, table, store.Properties, props))

	direct := s.resolver.Resolve(s.ctx, Lookup{Street: "Praça da Sé", Number: 100})
	s.True(direct.Found)

	for _, text := range []string{"Praça da Sé, 100", "Pça. da Sé 100", "PRACA DA SÉ, 100"} {
		s.Run(text, func() {
			res := s.resolver.ResolveText(s.ctx, text)
			s.True(res.Found, res.Notice)
			s.Equal(80.0, res.BuiltArea)
			s.Require().NotNil(res.Parsed)
			s.Equal("DA SÉ", res.Parsed.Street)
		})
	}
}
