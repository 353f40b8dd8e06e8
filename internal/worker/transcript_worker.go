package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"admitbot/internal/model"
	"admitbot/internal/repository"
)

// TranscriptPersistWorker drains the transcript queue and writes queries
// and responses to MySQL, keeping persistence off the answer path.
type TranscriptPersistWorker struct {
	conn      *amqp.Connection
	repo      *repository.TranscriptRepository
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTranscriptPersistWorker(conn *amqp.Connection, repo *repository.TranscriptRepository, queueName string) *TranscriptPersistWorker {
	return &TranscriptPersistWorker{
		conn:      conn,
		repo:      repo,
		queueName: queueName,
	}
}

func (w *TranscriptPersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				var turn model.TranscriptTurn
				if err := json.Unmarshal(d.Body, &turn); err != nil {
					log.Printf("worker decode transcript turn failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				if err := w.persist(turn); err != nil {
					log.Printf("worker persist transcript turn failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *TranscriptPersistWorker) persist(turn model.TranscriptTurn) error {
	if turn.Query != nil {
		if err := w.repo.SaveQuery(turn.Query); err != nil {
			return err
		}
	}
	if turn.Response != nil {
		if err := w.repo.SaveResponse(turn.Response); err != nil {
			return err
		}
	}
	return nil
}

func (w *TranscriptPersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
