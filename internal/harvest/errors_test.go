package harvest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type timeoutNetErr struct{}

func (timeoutNetErr) Error() string   { return "i/o timeout" }
func (timeoutNetErr) Timeout() bool   { return true }
func (timeoutNetErr) Temporary() bool { return false }

// TestClassify maps representative causes onto their failure kinds.
func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{name: "deadline", err: context.DeadlineExceeded, want: KindTimeout},
		{name: "canceled", err: context.Canceled, want: KindTimeout},
		{name: "wrapped deadline", err: fmt.Errorf("fetch x: %w", context.DeadlineExceeded), want: KindTimeout},
		{name: "net timeout", err: timeoutNetErr{}, want: KindTimeout},
		{name: "structure", err: fmt.Errorf("detail page: %w", ErrStructureNotFound), want: KindStructureNotFound},
		{name: "plain error", err: errors.New("connection reset"), want: KindTransport},
		{name: "classified error keeps its kind", err: &Error{Kind: KindStructureNotFound, Name: "Side"}, want: KindStructureNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

// TestErrorRendering includes every populated field in the message.
func TestErrorRendering(t *testing.T) {
	t.Parallel()

	err := &Error{
		Kind:    KindTransport,
		Name:    "Side",
		Locator: "https://example.com/tag54.html",
		Status:  503,
		Err:     errors.New("bad gateway"),
	}
	require.Equal(t, "transport: Side (https://example.com/tag54.html) status=503: bad gateway", err.Error())
	require.ErrorIs(t, err, err.Err)

	bare := &Error{Kind: KindTimeout, Name: "OrdType"}
	require.Equal(t, "timeout: OrdType", bare.Error())
}
