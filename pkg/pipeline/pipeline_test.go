package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/maildigest/pkg/domain"
	"github.com/umputun/maildigest/pkg/llm"
	"github.com/umputun/maildigest/pkg/pipeline/mocks"
)

type pipelineMocks struct {
	classifier *mocks.ClassifierMock
	extractor  *mocks.ExtractorMock
	clusterer  *mocks.ClustererMock
	curator    *mocks.CuratorMock
	renderer   *mocks.RendererMock
	sender     *mocks.SenderMock
	archive    *mocks.ArchiveMock
}

// newTestPipeline makes pipeline for three news messages (AI, AI, Stocks) and one non-news message
func newTestPipeline(t *testing.T) (*Pipeline, *pipelineMocks) {
	t.Helper()
	mb := mailbox("me@example.com",
		domain.Message{ID: "1", Subject: "AI daily", Body: "OpenAI ships model", Account: "me@example.com"},
		domain.Message{ID: "2", Subject: "AI weekly", Body: "OpenAI releases model", Account: "me@example.com"},
		domain.Message{ID: "3", Subject: "Markets", Body: "Stocks rally", Account: "me@example.com"},
		domain.Message{ID: "4", Subject: "Receipt", Body: "thanks", Account: "me@example.com"},
	)
	categories := map[string]string{"1": "AI", "2": "AI", "3": "Stocks"}

	m := &pipelineMocks{
		classifier: &mocks.ClassifierMock{ClassifyFunc: func(_ context.Context, msg domain.Message) (domain.Classification, error) {
			if c, ok := categories[msg.ID]; ok {
				return domain.Classification{IsNews: true, Confidence: domain.ConfidenceHigh, PrimaryCategory: c, SecondaryCategories: []string{}}, nil
			}
			return domain.Classification{IsNews: false, Confidence: domain.ConfidenceHigh, SecondaryCategories: []string{}}, nil
		}},
		extractor: &mocks.ExtractorMock{ExtractFunc: func(_ context.Context, cm domain.ClassifiedMessage) ([]domain.ExtractedItem, error) {
			return []domain.ExtractedItem{{Title: cm.Message.Body, Summary: "about " + cm.Message.Body, MainTopic: cm.Classification.PrimaryCategory,
				SourceURLs: []string{"https://example.com/" + cm.Message.ID}}}, nil
		}},
		clusterer: &mocks.ClustererMock{ClusterFunc: func(_ context.Context, category domain.Category, in []llm.ClusterInput, _ string) ([]domain.ClusterGroup, error) {
			if category == domain.CategoryAI {
				return []domain.ClusterGroup{{Type: domain.GroupDuplicate, ItemIDs: []int{in[0].ID, in[1].ID},
					Title: "OpenAI model", Summary: "new model"}}, nil
			}
			return []domain.ClusterGroup{}, nil
		}},
		curator: &mocks.CuratorMock{CurateFunc: func(_ context.Context, items []domain.ConsolidatedItem, _ llm.CurateOptions) (*domain.NewsletterDraft, error) {
			draft := &domain.NewsletterDraft{Title: "Digest"}
			for i, it := range items {
				draft.Categories = append(draft.Categories, domain.DraftCategory{Name: string(it.Category),
					Subcategories: []domain.DraftSubcategory{{Name: "Top", ItemIDs: []int{i}}}})
			}
			return draft, nil
		}},
		renderer: &mocks.RendererMock{RenderFunc: func(n domain.Newsletter, theme string) (string, error) {
			return "<html>" + n.Title + "</html>", nil
		}},
		sender:  &mocks.SenderMock{SendFunc: func(context.Context, string, string, []string) error { return nil }},
		archive: &mocks.ArchiveMock{SaveFunc: func(context.Context, string, string) (string, error) { return "/tmp/newsletter.html", nil }},
	}

	p := New(Params{
		Sources:    sourcesFunc(func(context.Context) []Mailbox { return []Mailbox{mb} }),
		Classifier: m.classifier,
		Extractor:  m.extractor,
		Clusterer:  m.clusterer,
		Curator:    m.curator,
		Renderer:   m.renderer,
		Sender:     m.sender,
		Archive:    m.archive,
		Settings: Settings{
			Parallel:            true,
			ExtractionWorkers:   3,
			DedupWorkers:        2,
			ClassificationRetry: fastRetry,
			DedupRetry:          fastRetry,
			AssemblyRetry:       fastRetry,
			DedupModels:         []string{"flash", "flash-lite"},
			Recipients:          []string{"reader@example.com"},
			Assembly:            AssemblyOptions{MaxItemsPerCategory: 10, Theme: "light"},
		},
	})
	return p, m
}

func TestPipeline_Run(t *testing.T) {
	p, m := newTestPipeline(t)
	res := p.Run(context.Background(), "test")

	require.True(t, res.Success, res.Error)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "test", res.Trigger)
	assert.False(t, res.FinishedAt.Before(res.StartedAt))
	assert.Equal(t, 4, res.Stats.TotalEmails)
	assert.Equal(t, 3, res.Stats.NewsEmails)
	assert.Equal(t, 3, res.Stats.NewsItemsExtracted)
	assert.Equal(t, 2, res.Stats.AfterDeduplication)
	assert.Equal(t, 2, res.Stats.Categories)
	assert.True(t, res.Stats.EmailSent)
	require.NotNil(t, res.Stats.Metrics)
	assert.Equal(t, 2, res.Stats.Metrics.TotalStories)

	require.Len(t, m.curator.CurateCalls(), 1)
	items := m.curator.CurateCalls()[0].Items
	require.Len(t, items, 2)
	assert.Equal(t, domain.CategoryAI, items[0].Category)
	assert.Equal(t, 2, items[0].OriginalCount)
	assert.Equal(t, []string{"https://example.com/1", "https://example.com/2"}, items[0].SourceURLs)
	assert.Equal(t, domain.CategoryStocks, items[1].Category)

	newsletter := m.renderer.RenderCalls()[0].N
	require.Len(t, newsletter.Sections, 2)
	assert.Equal(t, "AI", newsletter.Sections[0].Name)
	assert.Equal(t, 2, newsletter.Sections[0].Subcategories[0].Items[0].OriginalCount)

	require.Len(t, m.sender.SendCalls(), 1)
	assert.Equal(t, "<html>Digest</html>", m.sender.SendCalls()[0].Html)
	assert.Equal(t, []string{"reader@example.com"}, m.sender.SendCalls()[0].Recipients)
	assert.Empty(t, m.archive.SaveCalls())
}

func TestPipeline_NoNews(t *testing.T) {
	p, m := newTestPipeline(t)
	m.classifier.ClassifyFunc = func(context.Context, domain.Message) (domain.Classification, error) {
		return domain.Classification{IsNews: false, Confidence: domain.ConfidenceHigh}, nil
	}
	res := p.Run(context.Background(), "test")

	assert.True(t, res.Success)
	assert.Equal(t, "No news content found", res.Message)
	assert.Equal(t, 0, res.Stats.NewsEmails)
	assert.Equal(t, 4, res.Stats.TotalEmails)
	assert.Empty(t, m.extractor.ExtractCalls())
	assert.Empty(t, m.clusterer.ClusterCalls())
	assert.Empty(t, m.curator.CurateCalls())
	assert.Empty(t, m.sender.SendCalls())
}

func TestPipeline_NoMailboxes(t *testing.T) {
	p, m := newTestPipeline(t)
	p.sources = sourcesFunc(func(context.Context) []Mailbox { return nil })
	res := p.Run(context.Background(), "test")
	assert.False(t, res.Success)
	assert.Equal(t, "Authentication failed", res.Error)
	assert.Empty(t, m.classifier.ClassifyCalls())
}

func TestPipeline_NoExtractableContent(t *testing.T) {
	p, m := newTestPipeline(t)
	m.extractor.ExtractFunc = func(context.Context, domain.ClassifiedMessage) ([]domain.ExtractedItem, error) {
		return []domain.ExtractedItem{}, nil
	}
	res := p.Run(context.Background(), "test")
	assert.True(t, res.Success)
	assert.Equal(t, "No extractable news content", res.Message)
	assert.Equal(t, 3, res.Stats.NewsEmails)
	assert.Empty(t, m.curator.CurateCalls())
}

func TestPipeline_AssemblyFailure(t *testing.T) {
	t.Run("keyword fallback disabled", func(t *testing.T) {
		p, m := newTestPipeline(t)
		m.curator.CurateFunc = func(context.Context, []domain.ConsolidatedItem, llm.CurateOptions) (*domain.NewsletterDraft, error) {
			return nil, errors.New("quota exceeded")
		}
		res := p.Run(context.Background(), "test")
		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "Newsletter generation failed:")
		assert.Contains(t, res.Error, "quota exceeded")
		assert.Equal(t, 2, res.Stats.AfterDeduplication)
		assert.Empty(t, m.renderer.RenderCalls())
	})

	t.Run("keyword fallback enabled", func(t *testing.T) {
		p, m := newTestPipeline(t)
		m.curator.CurateFunc = func(context.Context, []domain.ConsolidatedItem, llm.CurateOptions) (*domain.NewsletterDraft, error) {
			return nil, errors.New("quota exceeded")
		}
		p.assembler.opts.FallbackToKeywords = true
		res := p.Run(context.Background(), "test")
		require.True(t, res.Success, res.Error)
		assert.Equal(t, 2, res.Stats.Categories)
		assert.Equal(t, 2, res.Stats.Metrics.FallbackCategorizedCount)
		assert.Len(t, m.sender.SendCalls(), 1)
	})
}

func TestPipeline_RenderFailure(t *testing.T) {
	p, m := newTestPipeline(t)
	m.renderer.RenderFunc = func(domain.Newsletter, string) (string, error) { return "", errors.New("unknown theme") }
	res := p.Run(context.Background(), "test")
	assert.False(t, res.Success)
	assert.Equal(t, "HTML generation failed: unknown theme", res.Error)
	assert.Empty(t, m.sender.SendCalls())
}

func TestPipeline_Delivery(t *testing.T) {
	t.Run("send failed, archived", func(t *testing.T) {
		p, m := newTestPipeline(t)
		m.sender.SendFunc = func(context.Context, string, string, []string) error { return errors.New("smtp down") }
		res := p.Run(context.Background(), "test")
		assert.True(t, res.Success)
		assert.False(t, res.Stats.EmailSent)
		assert.Equal(t, "/tmp/newsletter.html", res.Stats.ArchivedTo)
		require.Len(t, m.archive.SaveCalls(), 1)
		assert.Equal(t, "<html>Digest</html>", m.archive.SaveCalls()[0].Html)
	})

	t.Run("send and archive failed", func(t *testing.T) {
		p, m := newTestPipeline(t)
		m.sender.SendFunc = func(context.Context, string, string, []string) error { return errors.New("smtp down") }
		m.archive.SaveFunc = func(context.Context, string, string) (string, error) { return "", errors.New("disk full") }
		res := p.Run(context.Background(), "test")
		assert.False(t, res.Success)
		assert.Equal(t, "Email delivery failed: smtp down", res.Error)
	})
}

func TestPipeline_PanicRecovered(t *testing.T) {
	p, m := newTestPipeline(t)
	m.renderer.RenderFunc = func(domain.Newsletter, string) (string, error) { panic("template exploded") }
	res := p.Run(context.Background(), "test")
	assert.False(t, res.Success)
	assert.Equal(t, "Pipeline failed with error: template exploded", res.Error)
	assert.False(t, res.FinishedAt.IsZero())
}
