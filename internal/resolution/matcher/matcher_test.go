package matcher

//go:generate mockgen -source=matcher.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"net/netip"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"idgraph/internal/resolution/matcher/mocks"
	"idgraph/internal/resolution/models"
	id "idgraph/pkg/domain"
	dErrors "idgraph/pkg/domain-errors"
	"idgraph/pkg/platform/retry"
	"idgraph/pkg/platform/sentinel"
)

type fixture struct {
	directory *mocks.MockDirectory
	visitors  *mocks.MockVisitorIndex
	ipIntel   *mocks.MockIPIntel
	matcher   *Matcher
	tenant    id.TenantID
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		directory: mocks.NewMockDirectory(ctrl),
		visitors:  mocks.NewMockVisitorIndex(ctrl),
		ipIntel:   mocks.NewMockIPIntel(ctrl),
		tenant:    id.TenantID(uuid.New()),
	}
	f.matcher = New(f.directory, f.visitors,
		WithIPIntel(f.ipIntel),
		WithRetry(retry.Config{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}),
	)
	return f
}

func (f *fixture) company(domain string) *models.Company {
	return &models.Company{ID: id.CompanyID(uuid.New()), TenantID: f.tenant, Domain: domain, LastSeenAt: time.Now()}
}

func TestFindCandidates_NoSignalsNoLookups(t *testing.T) {
	f := newFixture(t)
	got, err := f.matcher.FindCandidates(context.Background(), f.tenant, models.Signals{CookieID: "c1"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindCandidates_EmailAndDomain(t *testing.T) {
	f := newFixture(t)
	person := &models.Person{ID: id.PersonID(uuid.New()), TenantID: f.tenant, Email: "ada@acme.com"}
	acme := f.company("acme.com")

	f.directory.EXPECT().PersonByEmail(gomock.Any(), f.tenant, "ada@acme.com").Return(person, nil)
	f.directory.EXPECT().CompanyByDomain(gomock.Any(), f.tenant, "acme.com").Return(acme, nil)

	got, err := f.matcher.FindCandidates(context.Background(), f.tenant, models.Signals{
		CookieID:    "c1",
		Email:       "ada@acme.com",
		EmailDomain: "acme.com",
		DomainHint:  "acme.com",
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	byType := map[models.EntityType]models.MatchCandidate{}
	for _, c := range got {
		byType[c.EntityType] = c
	}
	assert.Equal(t, uuid.UUID(person.ID), byType[models.EntityPerson].EntityID)
	assert.Equal(t, map[string]string{
		models.FieldEmailDomain:   "acme.com",
		models.FieldCompanyDomain: "acme.com",
	}, byType[models.EntityCompany].MatchedFields, "one lookup serves both domain sources")
	assert.Zero(t, byType[models.EntityCompany].Confidence, "matcher does not score")
}

func TestFindCandidates_MergesSameCompanyAcrossSources(t *testing.T) {
	f := newFixture(t)
	acme := f.company("acme.com")
	ip := netip.MustParseAddr("203.0.113.7")

	f.directory.EXPECT().CompanyByDomain(gomock.Any(), f.tenant, "acme.com").Return(acme, nil).Times(2)
	f.ipIntel.EXPECT().LookupDomain(gomock.Any(), ip).Return("acme.com", nil)

	got, err := f.matcher.FindCandidates(context.Background(), f.tenant, models.Signals{
		CookieID:   "c1",
		DomainHint: "acme.com",
		IP:         ip,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "203.0.113.7", got[0].MatchedFields[models.FieldIP])
	assert.Equal(t, "acme.com", got[0].MatchedFields[models.FieldCompanyDomain])
}

func TestFindCandidates_NotFoundIsEmpty(t *testing.T) {
	f := newFixture(t)
	f.directory.EXPECT().PersonByEmail(gomock.Any(), f.tenant, gomock.Any()).Return(nil, sentinel.ErrNotFound)
	f.ipIntel.EXPECT().LookupDomain(gomock.Any(), gomock.Any()).Return("", sentinel.ErrNotFound)

	got, err := f.matcher.FindCandidates(context.Background(), f.tenant, models.Signals{
		Email: "nobody@acme.com",
		IP:    netip.MustParseAddr("198.51.100.1"),
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindCandidates_Fingerprint(t *testing.T) {
	f := newFixture(t)
	self := id.VisitorID(uuid.New())
	personID := id.PersonID(uuid.New())
	companyID := id.CompanyID(uuid.New())
	selfPerson := id.PersonID(uuid.New())

	peers := []*models.Visitor{
		{TenantID: f.tenant, ID: self, CurrentPersonID: &selfPerson},
		{TenantID: f.tenant, ID: id.VisitorID(uuid.New()), CurrentPersonID: &personID, CurrentCompanyID: &companyID},
		{TenantID: f.tenant, ID: id.VisitorID(uuid.New()), CurrentPersonID: &personID},
	}
	f.visitors.EXPECT().ListResolvedByFingerprint(gomock.Any(), f.tenant, "fp01", maxFingerprintPeers).Return(peers, nil)
	f.directory.EXPECT().PersonsByIDs(gomock.Any(), f.tenant, []id.PersonID{personID}).
		Return([]*models.Person{{ID: personID, TenantID: f.tenant}}, nil)
	f.directory.EXPECT().CompaniesByIDs(gomock.Any(), f.tenant, []id.CompanyID{companyID}).
		Return([]*models.Company{{ID: companyID, TenantID: f.tenant}}, nil)

	got, err := f.matcher.FindCandidates(context.Background(), f.tenant, models.Signals{
		VisitorID:   &self,
		Fingerprint: "fp01",
	})
	require.NoError(t, err)
	require.Len(t, got, 2, "the anchoring visitor is excluded and peers are deduplicated")
	for _, c := range got {
		assert.Equal(t, "fp01", c.MatchedFields[models.FieldFingerprint])
	}
}

func TestFindCandidates_TenantMismatchIsTerminal(t *testing.T) {
	f := newFixture(t)
	foreign := &models.Person{ID: id.PersonID(uuid.New()), TenantID: id.TenantID(uuid.New())}
	f.directory.EXPECT().PersonByEmail(gomock.Any(), f.tenant, "ada@acme.com").Return(foreign, nil).Times(1)

	_, err := f.matcher.FindCandidates(context.Background(), f.tenant, models.Signals{Email: "ada@acme.com"})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTenantMismatch))
	assert.False(t, dErrors.IsRetryable(err))
}

func TestFindCandidates_StoreFailureRetriedThenUnavailable(t *testing.T) {
	f := newFixture(t)
	f.directory.EXPECT().PersonByEmail(gomock.Any(), f.tenant, gomock.Any()).
		Return(nil, errors.New("connection reset")).Times(3)

	_, err := f.matcher.FindCandidates(context.Background(), f.tenant, models.Signals{Email: "ada@acme.com"})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeLookupUnavailable))
	assert.True(t, dErrors.IsRetryable(err))
}

func TestFindCandidates_TransientFailureRecovers(t *testing.T) {
	f := newFixture(t)
	acme := f.company("acme.com")
	gomock.InOrder(
		f.directory.EXPECT().CompanyByDomain(gomock.Any(), f.tenant, "acme.com").Return(nil, sentinel.ErrUnavailable),
		f.directory.EXPECT().CompanyByDomain(gomock.Any(), f.tenant, "acme.com").Return(acme, nil),
	)

	got, err := f.matcher.FindCandidates(context.Background(), f.tenant, models.Signals{DomainHint: "acme.com"})
	require.NoError(t, err)
	require.Len(t, got, 1)
}
