package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/SscSPs/buchungsjournal/internal/core/domain"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockKafkaWriter mocks KafkaWriter interface
type MockKafkaWriter struct {
	mock.Mock
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockKafkaWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func testEvent() domain.LedgerEvent {
	return domain.LedgerEvent{
		Type:           domain.EventEntryReversed,
		EntryID:        "e-2",
		EntryNumber:    "BU-2024-0002",
		Status:         domain.StatusPosted,
		Actor:          "Erika Mustermann",
		OccurredAt:     time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC),
		RelatedEntryID: "e-1",
	}
}

func TestJournalEventProducer_Publish(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("SuccessfulPublish", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &JournalEventProducer{logger: logger, writer: mockWriter, topic: "ledger"}

		mockWriter.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 || string(msgs[0].Key) != "e-2" {
				return false
			}
			var payload map[string]any
			if err := json.Unmarshal(msgs[0].Value, &payload); err != nil {
				return false
			}
			return payload["type"] == "entry.reversed" &&
				payload["entryNumber"] == "BU-2024-0002" &&
				payload["relatedEntryId"] == "e-1" &&
				string(msgs[0].Headers[0].Value) == "entry.reversed"
		})).Return(nil).Once()

		require.NoError(t, producer.Publish(ctx, testEvent()))
		mockWriter.AssertExpectations(t)
	})

	t.Run("WriterError", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &JournalEventProducer{logger: logger, writer: mockWriter, topic: "ledger"}

		brokerErr := errors.New("leader not available")
		mockWriter.On("WriteMessages", ctx, mock.Anything).Return(brokerErr).Once()

		err := producer.Publish(ctx, testEvent())
		assert.ErrorIs(t, err, brokerErr)
		assert.Contains(t, err.Error(), "ledger")
	})

	t.Run("Close", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &JournalEventProducer{logger: logger, writer: mockWriter, topic: "ledger"}
		mockWriter.On("Close").Return(nil).Once()

		assert.NoError(t, producer.Close())
		mockWriter.AssertExpectations(t)
	})
}

func TestNewJournalEventProducer_RequiresConfig(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := NewJournalEventProducer(logger, nil, "ledger")
	assert.Error(t, err)

	_, err = NewJournalEventProducer(logger, []string{"localhost:9092"}, "")
	assert.Error(t, err)

	producer, err := NewJournalEventProducer(logger, []string{"localhost:9092"}, "ledger")
	require.NoError(t, err)
	assert.NotNil(t, producer)
}
