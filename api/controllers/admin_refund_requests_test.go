package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caremesh/caremesh-backend/api/middleware"
	"github.com/caremesh/caremesh-backend/pkg/db/models"
	"github.com/caremesh/caremesh-backend/pkg/enums"
	pkgerrors "github.com/caremesh/caremesh-backend/pkg/errors"
	"github.com/caremesh/caremesh-backend/pkg/logger"
)

type testRefundService struct {
	createFn  func(ctx context.Context, orderID, requestedByID uuid.UUID, reason string) (*models.RefundRequest, error)
	approveFn func(ctx context.Context, requestID, reviewerID uuid.UUID, notes string) (*models.RefundRequest, error)
	denyFn    func(ctx context.Context, requestID, reviewerID uuid.UUID, notes string) (*models.RefundRequest, error)
	listFn    func(ctx context.Context, status *enums.RefundRequestStatus, limit, offset int) ([]models.RefundRequest, error)
}

func (s *testRefundService) Create(ctx context.Context, orderID, requestedByID uuid.UUID, reason string) (*models.RefundRequest, error) {
	if s.createFn != nil {
		return s.createFn(ctx, orderID, requestedByID, reason)
	}
	return nil, nil
}

func (s *testRefundService) Approve(ctx context.Context, requestID, reviewerID uuid.UUID, notes string) (*models.RefundRequest, error) {
	if s.approveFn != nil {
		return s.approveFn(ctx, requestID, reviewerID, notes)
	}
	return nil, nil
}

func (s *testRefundService) Deny(ctx context.Context, requestID, reviewerID uuid.UUID, notes string) (*models.RefundRequest, error) {
	if s.denyFn != nil {
		return s.denyFn(ctx, requestID, reviewerID, notes)
	}
	return nil, nil
}

func (s *testRefundService) List(ctx context.Context, status *enums.RefundRequestStatus, limit, offset int) ([]models.RefundRequest, error) {
	if s.listFn != nil {
		return s.listFn(ctx, status, limit, offset)
	}
	return nil, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func resolvedRequest(status enums.RefundRequestStatus) *models.RefundRequest {
	now := time.Now().UTC()
	reviewer := uuid.New()
	return &models.RefundRequest{
		ID:                  uuid.New(),
		OrderID:             uuid.New(),
		RequestedByID:       uuid.New(),
		Amount:              decimal.RequireFromString("100.00"),
		BrandCoverageAmount: decimal.RequireFromString("48.00"),
		Reason:              "wrong item shipped",
		Status:              status,
		ReviewedByID:        &reviewer,
		ReviewedAt:          &now,
		CreatedAt:           now,
	}
}

func reviewRequestWith(t *testing.T, requestID uuid.UUID, reviewerID uuid.UUID, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/admin/refund-requests/"+requestID.String()+"/approve", strings.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), reviewerID.String()))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("requestID", requestID.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestApproveRefundRequestSuccess(t *testing.T) {
	requestID := uuid.New()
	reviewerID := uuid.New()
	resolved := resolvedRequest(enums.RefundRequestStatusApproved)
	resolved.ID = requestID

	called := false
	svc := &testRefundService{
		approveFn: func(ctx context.Context, rid, uid uuid.UUID, notes string) (*models.RefundRequest, error) {
			called = true
			if rid != requestID {
				t.Fatalf("unexpected request id %s", rid)
			}
			if uid != reviewerID {
				t.Fatalf("unexpected reviewer %s", uid)
			}
			if notes != "verified with pharmacy" {
				t.Fatalf("unexpected notes %q", notes)
			}
			return resolved, nil
		},
	}

	resp := httptest.NewRecorder()
	ApproveRefundRequest(svc, testLogger())(resp, reviewRequestWith(t, requestID, reviewerID, `{"notes":"verified with pharmacy"}`))

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if !called {
		t.Fatal("expected service called")
	}

	var envelope struct {
		Data refundRequestResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Status != string(enums.RefundRequestStatusApproved) {
		t.Fatalf("unexpected status %s", envelope.Data.Status)
	}
	if envelope.Data.BrandCoverageAmount != "48.00" {
		t.Fatalf("unexpected coverage %s", envelope.Data.BrandCoverageAmount)
	}
}

func TestApproveRefundRequestAlreadyResolved(t *testing.T) {
	requestID := uuid.New()
	svc := &testRefundService{
		approveFn: func(ctx context.Context, rid, uid uuid.UUID, notes string) (*models.RefundRequest, error) {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "refund request already resolved")
		},
	}

	resp := httptest.NewRecorder()
	ApproveRefundRequest(svc, testLogger())(resp, reviewRequestWith(t, requestID, uuid.New(), `{}`))

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestApproveRefundRequestRejectsBadID(t *testing.T) {
	svc := &testRefundService{
		approveFn: func(ctx context.Context, rid, uid uuid.UUID, notes string) (*models.RefundRequest, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/refund-requests/not-a-uuid/approve", strings.NewReader(`{}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("requestID", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	ApproveRefundRequest(svc, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestDenyRefundRequestSuccess(t *testing.T) {
	requestID := uuid.New()
	resolved := resolvedRequest(enums.RefundRequestStatusDenied)
	resolved.ID = requestID

	svc := &testRefundService{
		denyFn: func(ctx context.Context, rid, uid uuid.UUID, notes string) (*models.RefundRequest, error) {
			return resolved, nil
		},
	}

	resp := httptest.NewRecorder()
	DenyRefundRequest(svc, testLogger())(resp, reviewRequestWith(t, requestID, uuid.New(), `{"notes":"duplicate request"}`))

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}

	var envelope struct {
		Data refundRequestResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Status != string(enums.RefundRequestStatusDenied) {
		t.Fatalf("unexpected status %s", envelope.Data.Status)
	}
}

func TestListRefundRequestsFiltersStatus(t *testing.T) {
	svc := &testRefundService{
		listFn: func(ctx context.Context, status *enums.RefundRequestStatus, limit, offset int) ([]models.RefundRequest, error) {
			if status == nil || *status != enums.RefundRequestStatusPending {
				t.Fatalf("expected pending filter, got %v", status)
			}
			if limit != 25 || offset != 0 {
				t.Fatalf("unexpected pagination limit=%d offset=%d", limit, offset)
			}
			return []models.RefundRequest{*resolvedRequest(enums.RefundRequestStatusPending)}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/refund-requests?status=pending&limit=25", nil)
	resp := httptest.NewRecorder()
	ListRefundRequests(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}

	var envelope struct {
		Data []refundRequestResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(envelope.Data) != 1 {
		t.Fatalf("expected one request, got %d", len(envelope.Data))
	}
}

func TestListRefundRequestsRejectsUnknownStatus(t *testing.T) {
	svc := &testRefundService{
		listFn: func(ctx context.Context, status *enums.RefundRequestStatus, limit, offset int) ([]models.RefundRequest, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/refund-requests?status=bogus", nil)
	resp := httptest.NewRecorder()
	ListRefundRequests(svc, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}
