package extraction

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/kgraph/internal/mocks"
)

func TestURLExtractor(t *testing.T) {
	const pageURL = "https://en.wikipedia.org/wiki/Paris"

	t.Run("fetches then extracts", func(t *testing.T) {
		fetcher := new(mocks.MockTextFetcher)
		fetcher.On("FetchText", mock.Anything, pageURL).Return("Paris is the capital of France.", nil).Once()
		te, client := newTestExtractor(t, parisResponse, nil)
		ue := NewURLExtractor(te, fetcher, nil)

		g, err := ue.Extract(context.Background(), pageURL, "")
		require.NoError(t, err)
		assert.Equal(t, 3, g.Len())
		assert.Equal(t, pageURL, metaString(t, g, MetaSourceURL))
		assert.Equal(t, TypeURL, metaString(t, g, MetaExtractorType))
		fetcher.AssertExpectations(t)
		client.AssertNumberOfCalls(t, "Generate", 1)
	})

	t.Run("rejects non-http sources before fetching", func(t *testing.T) {
		fetcher := new(mocks.MockTextFetcher)
		ue := NewURLExtractor(NewTextExtractor(&stubProvider{}, "m", nil), fetcher, nil)

		for _, src := range []string{"ftp://example.com", "example.com", "/etc/hosts"} {
			assert.False(t, ue.ValidateSource(src))
			_, err := ue.Extract(context.Background(), src, "")
			assert.ErrorIs(t, err, ErrInvalidSource)
		}
		fetcher.AssertNotCalled(t, "FetchText", mock.Anything, mock.Anything)
	})

	t.Run("fetch errors propagate", func(t *testing.T) {
		fetcher := new(mocks.MockTextFetcher)
		boom := errors.New("connection refused")
		fetcher.On("FetchText", mock.Anything, pageURL).Return("", boom)
		provider := &stubProvider{}
		ue := NewURLExtractor(NewTextExtractor(provider, "m", nil), fetcher, nil)

		_, err := ue.Extract(context.Background(), pageURL, "")
		assert.ErrorIs(t, err, boom)
		assert.Zero(t, provider.calls)
	})

	t.Run("an empty page is an invalid source", func(t *testing.T) {
		fetcher := new(mocks.MockTextFetcher)
		fetcher.On("FetchText", mock.Anything, pageURL).Return("", nil)
		ue := NewURLExtractor(NewTextExtractor(&stubProvider{}, "m", nil), fetcher, nil)

		_, err := ue.Extract(context.Background(), pageURL, "")
		assert.ErrorIs(t, err, ErrInvalidSource)
	})
}
