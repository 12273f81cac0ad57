package app

import (
	"github.com/fd1az/swap-router/business/routing/domain"
	"github.com/fd1az/swap-router/internal/asset"
	"github.com/fd1az/swap-router/internal/pubsub"
)

// Streams are the state topics shared by the routing services. Each replays
// its latest value to new subscribers.
type Streams struct {
	Trades       *pubsub.Topic[[]domain.Candidate]
	Progress     *pubsub.Topic[domain.Progress]
	Selected     *pubsub.Topic[domain.SelectedTrade]
	OutputAmount *pubsub.Topic[asset.Amount]
	Refresh      *pubsub.Topic[domain.RefreshState]
	Page         *pubsub.Topic[domain.PageState]
}

// NewStreams creates the topics with their initial values.
func NewStreams() *Streams {
	return &Streams{
		Trades:       pubsub.NewTopicWith[[]domain.Candidate](nil),
		Progress:     pubsub.NewTopicWith(domain.Progress{}),
		Selected:     pubsub.NewTopicWith(domain.NotInitiated()),
		OutputAmount: pubsub.NewTopic[asset.Amount](),
		Refresh:      pubsub.NewTopicWith(domain.RefreshStopped),
		Page:         pubsub.NewTopicWith(domain.PageForm),
	}
}

// Close closes every topic.
func (s *Streams) Close() {
	s.Trades.Close()
	s.Progress.Close()
	s.Selected.Close()
	s.OutputAmount.Close()
	s.Refresh.Close()
	s.Page.Close()
}
