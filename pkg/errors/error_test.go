package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestWrapKeepsCode(t *testing.T) {
	base := NewAppError(ErrNotFound, "payment not found", nil)
	wrapped := Wrap(fmt.Errorf("lookup: %w", base), "failed to load payment")

	assert.Equal(t, ErrNotFound, CodeOf(wrapped))
	assert.True(t, Is(wrapped, base))
	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestWrapPlainError(t *testing.T) {
	wrapped := Wrap(New("boom"), "failed")
	assert.Equal(t, ErrInternal, CodeOf(wrapped))
	assert.Equal(t, "failed: boom", wrapped.Error())
}

func TestToHTTPError(t *testing.T) {
	t.Run("client error keeps message", func(t *testing.T) {
		he := ToHTTPError(NewAppError(ErrConflict, "subscription already active", nil))
		assert.Equal(t, http.StatusConflict, he.Code)
		assert.Equal(t, "subscription already active", he.Message)
	})

	t.Run("internal error hides cause", func(t *testing.T) {
		he := ToHTTPError(NewAppError(ErrInternal, "db down", New("dial tcp")))
		assert.Equal(t, http.StatusInternalServerError, he.Code)
		assert.Equal(t, http.StatusText(http.StatusInternalServerError), he.Message)
	})

	t.Run("unknown code defaults to 500", func(t *testing.T) {
		assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus("SOMETHING_ELSE"))
	})
}

func TestToGRPCError(t *testing.T) {
	t.Run("client error keeps message", func(t *testing.T) {
		st, ok := status.FromError(ToGRPCError(NewAppError(ErrNotFound, "payment not found", nil)))
		require.True(t, ok)
		assert.Equal(t, codes.NotFound, st.Code())
		assert.Equal(t, "payment not found", st.Message())
	})

	t.Run("server fault hides cause", func(t *testing.T) {
		st, _ := status.FromError(ToGRPCError(Wrap(New("dial tcp"), "db down")))
		assert.Equal(t, codes.Internal, st.Code())
		assert.NotContains(t, st.Message(), "dial tcp")
	})

	t.Run("status errors pass through", func(t *testing.T) {
		in := status.Error(codes.Unavailable, "draining")
		assert.Equal(t, in, ToGRPCError(in))
	})

	assert.NoError(t, ToGRPCError(nil))
}

func TestLogErrorLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	LogError(logger, NewAppError(ErrConflict, "already active", nil), "cancel failed")
	LogError(logger, NewAppError(ErrInternal, "db down", nil), "grant failed")
	LogError(logger, nil, "ignored")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
	assert.Equal(t, "INTERNAL", entries[1].ContextMap()["error_code"])
}
