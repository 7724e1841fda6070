package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/buchungsjournal/internal/apperrors"
	"github.com/SscSPs/buchungsjournal/internal/core/domain"
	portssvc "github.com/SscSPs/buchungsjournal/internal/core/ports/services"
	"github.com/SscSPs/buchungsjournal/internal/dto"
	"github.com/SscSPs/buchungsjournal/internal/handlers"
	"github.com/SscSPs/buchungsjournal/internal/middleware"
	"github.com/SscSPs/buchungsjournal/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock LedgerService ---
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) GetEntry(ctx context.Context, id string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockLedgerService) Entries(ctx context.Context) []domain.JournalEntry {
	args := m.Called(ctx)
	return args.Get(0).([]domain.JournalEntry)
}

func (m *MockLedgerService) FilterEntries(ctx context.Context, criteria portssvc.FilterCriteria) []domain.JournalEntry {
	args := m.Called(ctx, criteria)
	return args.Get(0).([]domain.JournalEntry)
}

func (m *MockLedgerService) GetNextEntryNumber(ctx context.Context) string {
	args := m.Called(ctx)
	return args.String(0)
}

func (m *MockLedgerService) GetSummary(ctx context.Context) portssvc.Summary {
	args := m.Called(ctx)
	return args.Get(0).(portssvc.Summary)
}

func (m *MockLedgerService) CreateEntry(ctx context.Context, input portssvc.CreateEntryInput) (*domain.JournalEntry, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockLedgerService) UpdateEntry(ctx context.Context, id string, updates portssvc.EntryUpdate) (*domain.JournalEntry, error) {
	args := m.Called(ctx, id, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockLedgerService) PostEntry(ctx context.Context, id string, postedBy string) (bool, error) {
	args := m.Called(ctx, id, postedBy)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerService) ReverseEntry(ctx context.Context, id string, reversedBy string, reversalDate domain.Date) (*domain.JournalEntry, error) {
	args := m.Called(ctx, id, reversedBy, reversalDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockLedgerService) DeleteEntry(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.LedgerSvcFacade = (*MockLedgerService)(nil)

// --- Test Suite ---
type JournalHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	mockLedger  *MockLedgerService
	jwtSecret   string
	bearerToken string
}

const testActor = "Erika Mustermann"

func (suite *JournalHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"
	suite.mockLedger = new(MockLedgerService)

	token, err := utils.GenerateJWT("user-1", testActor, suite.jwtSecret, time.Hour, "buchungsjournal-test")
	suite.Require().NoError(err)
	suite.bearerToken = "Bearer " + token

	v1 := suite.router.Group("/api/v1", middleware.AuthMiddleware(suite.jwtSecret))
	handlers.RegisterJournalRoutes(v1, suite.mockLedger)
}

func (suite *JournalHandlerTestSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", suite.bearerToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func sampleEntry(id, number string, status domain.EntryStatus) *domain.JournalEntry {
	entry := &domain.JournalEntry{
		ID:          id,
		EntryNumber: number,
		Date:        domain.NewDate(2024, time.March, 1),
		PostingDate: domain.NewDate(2024, time.March, 1),
		Type:        domain.TypeStandard,
		Status:      status,
		Description: "Miete März",
		Lines: []domain.JournalLine{
			{ID: "l1", AccountNumber: "4210", Debit: decimal.NewFromInt(800), Credit: decimal.Zero},
			{ID: "l2", AccountNumber: "1200", Debit: decimal.Zero, Credit: decimal.NewFromInt(800)},
		},
		CreatedBy: testActor,
	}
	entry.Recalculate()
	return entry
}

func (suite *JournalHandlerTestSuite) TestCreateEntry_Success() {
	reqBody := map[string]any{
		"date":        "2024-03-01",
		"description": "Miete März",
		"lines": []map[string]any{
			{"accountNumber": "4210", "debit": 800},
			{"accountNumber": "1200", "credit": 800},
		},
	}
	created := sampleEntry("e-1", "BU-2024-0001", domain.StatusDraft)

	suite.mockLedger.On("CreateEntry", mock.Anything, mock.MatchedBy(func(in portssvc.CreateEntryInput) bool {
		return in.CreatedBy == testActor &&
			in.Date.Equal(domain.NewDate(2024, time.March, 1)) &&
			len(in.Lines) == 2 &&
			in.Lines[0].Debit.Equal(decimal.NewFromInt(800)) &&
			in.Type == "" && in.Status == ""
	})).Return(created, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/journal-entries", reqBody)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.JournalEntryResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("BU-2024-0001", resp.EntryNumber)
	suite.Equal("Entwurf", resp.StatusLabel)
	suite.True(resp.IsBalanced)
	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *JournalHandlerTestSuite) TestCreateEntry_BindingErrors() {
	testCases := []struct {
		name string
		body any
	}{
		{name: "missing description", body: map[string]any{"lines": []map[string]any{{"accountNumber": "1200"}}}},
		{name: "no lines", body: map[string]any{"description": "x", "lines": []any{}}},
		{name: "line without account", body: map[string]any{"description": "x", "lines": []map[string]any{{"debit": 1}}}},
		{name: "reversal type", body: map[string]any{"description": "x", "type": "reversal", "lines": []map[string]any{{"accountNumber": "1200"}}}},
		{name: "bad date", body: map[string]any{"description": "x", "date": "01.03.2024", "lines": []map[string]any{{"accountNumber": "1200"}}}},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			w := suite.do(http.MethodPost, "/api/v1/journal-entries", tc.body)
			suite.Equal(http.StatusBadRequest, w.Code)
		})
	}
	suite.mockLedger.AssertNotCalled(suite.T(), "CreateEntry", mock.Anything, mock.Anything)
}

func (suite *JournalHandlerTestSuite) TestCreateEntry_Unauthorized() {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/journal-entries", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *JournalHandlerTestSuite) TestServiceErrorMapping() {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "not found", err: fmt.Errorf("%w: entry x", apperrors.ErrNotFound), wantStatus: http.StatusNotFound},
		{name: "not a draft", err: fmt.Errorf("%w: entry x is posted", apperrors.ErrInvalidState), wantStatus: http.StatusConflict},
		{name: "unbalanced", err: fmt.Errorf("%w: debit 100 credit 90", apperrors.ErrUnbalanced), wantStatus: http.StatusConflict},
		{name: "persistence", err: fmt.Errorf("%w: disk full", apperrors.ErrPersistence), wantStatus: http.StatusInternalServerError},
		{name: "stale snapshot", err: fmt.Errorf("%w: save journal: %w", apperrors.ErrPersistence, apperrors.ErrStaleSnapshot), wantStatus: http.StatusConflict},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			suite.SetupTest()
			suite.mockLedger.On("PostEntry", mock.Anything, "e-1", testActor).Return(false, tc.err).Once()

			w := suite.do(http.MethodPost, "/api/v1/journal-entries/e-1/post", nil)
			suite.Equal(tc.wantStatus, w.Code)
		})
	}
}

func (suite *JournalHandlerTestSuite) TestPostEntry_Success() {
	posted := sampleEntry("e-1", "BU-2024-0001", domain.StatusPosted)
	suite.mockLedger.On("PostEntry", mock.Anything, "e-1", testActor).Return(true, nil).Once()
	suite.mockLedger.On("GetEntry", mock.Anything, "e-1").Return(posted, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/journal-entries/e-1/post", nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"status":"posted"`)
	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *JournalHandlerTestSuite) TestReverseEntry() {
	reversal := sampleEntry("e-2", "BU-2024-0002", domain.StatusPosted)
	reversal.Type = domain.TypeReversal

	suite.Run("with date", func() {
		suite.mockLedger.On("ReverseEntry", mock.Anything, "e-1", testActor, domain.NewDate(2024, time.April, 2)).Return(reversal, nil).Once()
		w := suite.do(http.MethodPost, "/api/v1/journal-entries/e-1/reverse", map[string]string{"reversalDate": "2024-04-02"})
		suite.Equal(http.StatusCreated, w.Code)
		suite.Contains(w.Body.String(), `"typeLabel":"Storno"`)
	})

	suite.Run("without body", func() {
		suite.mockLedger.On("ReverseEntry", mock.Anything, "e-1", testActor, domain.Date{}).Return(reversal, nil).Once()
		w := suite.do(http.MethodPost, "/api/v1/journal-entries/e-1/reverse", nil)
		suite.Equal(http.StatusCreated, w.Code)
	})

	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *JournalHandlerTestSuite) TestUpdateEntry() {
	updated := sampleEntry("e-1", "BU-2024-0001", domain.StatusDraft)
	updated.Description = "Miete April"

	suite.mockLedger.On("UpdateEntry", mock.Anything, "e-1", mock.MatchedBy(func(u portssvc.EntryUpdate) bool {
		return u.Description != nil && *u.Description == "Miete April" && u.Lines == nil && u.Date == nil
	})).Return(updated, nil).Once()

	w := suite.do(http.MethodPatch, "/api/v1/journal-entries/e-1", map[string]string{"description": "Miete April"})

	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "Miete April")
	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *JournalHandlerTestSuite) TestDeleteEntry() {
	suite.mockLedger.On("DeleteEntry", mock.Anything, "e-1").Return(true, nil).Once()
	suite.mockLedger.On("DeleteEntry", mock.Anything, "e-9").Return(false, fmt.Errorf("%w: entry e-9", apperrors.ErrNotFound)).Once()

	suite.Equal(http.StatusNoContent, suite.do(http.MethodDelete, "/api/v1/journal-entries/e-1", nil).Code)
	suite.Equal(http.StatusNotFound, suite.do(http.MethodDelete, "/api/v1/journal-entries/e-9", nil).Code)
}

func (suite *JournalHandlerTestSuite) TestListEntries_FilterAndPaging() {
	entries := []domain.JournalEntry{
		*sampleEntry("e-1", "BU-2024-0001", domain.StatusDraft),
		*sampleEntry("e-2", "BU-2024-0002", domain.StatusDraft),
		*sampleEntry("e-3", "BU-2024-0003", domain.StatusDraft),
	}
	suite.mockLedger.On("FilterEntries", mock.Anything, portssvc.FilterCriteria{
		DateFrom: domain.NewDate(2024, time.January, 1),
		Status:   domain.StatusDraft,
		Search:   "miete",
	}).Return(entries)

	w := suite.do(http.MethodGet, "/api/v1/journal-entries?from=2024-01-01&status=draft&search=miete&limit=2", nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	var first dto.ListJournalEntriesResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &first))
	suite.Len(first.Entries, 2)
	suite.NotEmpty(first.NextToken)

	w = suite.do(http.MethodGet, "/api/v1/journal-entries?from=2024-01-01&status=draft&search=miete&limit=2&nextToken="+first.NextToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	var second dto.ListJournalEntriesResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &second))
	suite.Require().Len(second.Entries, 1)
	suite.Equal("e-3", second.Entries[0].ID)
	suite.Empty(second.NextToken)
}

func (suite *JournalHandlerTestSuite) TestListEntries_InvalidQuery() {
	suite.Equal(http.StatusBadRequest, suite.do(http.MethodGet, "/api/v1/journal-entries?status=open", nil).Code)
	suite.Equal(http.StatusBadRequest, suite.do(http.MethodGet, "/api/v1/journal-entries?from=yesterday", nil).Code)
}

func (suite *JournalHandlerTestSuite) TestNextNumberAndSummary() {
	suite.mockLedger.On("GetNextEntryNumber", mock.Anything).Return("BU-2024-0003").Once()
	suite.mockLedger.On("GetSummary", mock.Anything).Return(portssvc.Summary{
		TotalEntries: 3, DraftEntries: 1, PostedEntries: 2, PostedTotalDebit: decimal.NewFromInt(1600),
	}).Once()

	w := suite.do(http.MethodGet, "/api/v1/journal-entries/next-number", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"entryNumber":"BU-2024-0003"}`, w.Body.String())

	w = suite.do(http.MethodGet, "/api/v1/journal-entries/summary", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"totalEntries":3,"draftEntries":1,"postedEntries":2,"postedTotalDebit":1600}`, w.Body.String())
}

func (suite *JournalHandlerTestSuite) TestExportEntries() {
	entries := []domain.JournalEntry{*sampleEntry("e-1", "BU-2024-0001", domain.StatusPosted)}
	suite.mockLedger.On("FilterEntries", mock.Anything, portssvc.FilterCriteria{}).Return(entries).Once()

	w := suite.do(http.MethodGet, "/api/v1/journal-entries/export", nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	suite.Contains(w.Header().Get("Content-Disposition"), "attachment")
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	suite.Len(lines, 3)
	suite.Equal("BU-2024-0001;2024-03-01;standard;posted;Miete März;4210;800.00;0.00", lines[1])
	suite.Equal("BU-2024-0001;2024-03-01;standard;posted;;1200;0.00;800.00", lines[2])
}

func TestJournalHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(JournalHandlerTestSuite))
}
