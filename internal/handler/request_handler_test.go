package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zillah777/fixia.com.ar-sub001/internal/model"
	"github.com/zillah777/fixia.com.ar-sub001/internal/review"
)

type memRequests struct {
	created []model.ServiceRequest
}

func (m *memRequests) Create(_ context.Context, req *model.ServiceRequest) error {
	req.ID = uint64(len(m.created) + 1)
	m.created = append(m.created, *req)
	return nil
}

type pendingFake struct {
	pending map[uint64][]uint64
}

func (p *pendingFake) PendingReviewMatchIDs(_ context.Context, userID uint64) ([]uint64, error) {
	return p.pending[userID], nil
}

func TestCreateRequestBlockedByPendingReview(t *testing.T) {
	requests := &memRequests{}
	blocker := review.NewBlocker(&pendingFake{pending: map[uint64][]uint64{5: {3}}})
	h := NewRequestHandler(requests, blocker)

	c, rec := jsonCtx(http.MethodPost, "/v1/requests", `{"title":"Fix my sink"}`, 5)
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Empty(t, requests.created)

	// A user with no outstanding reviews gets through.
	c, rec = jsonCtx(http.MethodPost, "/v1/requests", `{"title":"Fix my sink","description":"leaky"}`, 6)
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, requests.created, 1)
	require.Equal(t, uint64(6), requests.created[0].ClientID)

	c, rec = jsonCtx(http.MethodPost, "/v1/requests", `{"title":"   "}`, 6)
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
