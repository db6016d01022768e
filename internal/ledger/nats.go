package ledger

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/promptkit/internal/config"
	"git.home.luguber.info/inful/promptkit/internal/foundation/errors"
	"git.home.luguber.info/inful/promptkit/internal/logfields"
)

// BrokenLinkEvent is published for every reference that ends a run unresolved.
type BrokenLinkEvent struct {
	URL           string    `json:"url"`
	Status        Status    `json:"status"`
	HTTPStatus    int       `json:"http_status"`
	Error         string    `json:"error,omitempty"`
	SourceFile    string    `json:"source_file"`
	Category      string    `json:"category,omitempty"`
	Class         string    `json:"class,omitempty"`
	Kind          string    `json:"kind"`
	Line          int       `json:"line,omitempty"`
	RunID         string    `json:"run_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	LastChecked   time.Time `json:"last_checked"`
	FailureCount  int       `json:"failure_count"`
	FirstFailedAt time.Time `json:"first_failed_at,omitzero"`
}

// Publisher receives broken link events.
type Publisher interface {
	PublishBrokenLink(ctx context.Context, event *BrokenLinkEvent) error
}

type keyValue interface {
	Put(ctx context.Context, key string, value []byte) (uint64, error)
}

type streamPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// NATSMirror wraps a Store, mirroring every written outcome into a JetStream
// KV bucket and publishing broken link events on a subject. The wrapped store
// stays the source of truth; mirror failures are logged, not returned.
type NATSMirror struct {
	Store

	conn    *nats.Conn
	kv      keyValue
	js      streamPublisher
	subject string
}

// NewNATSMirror connects to the NATS server in cfg and wraps inner.
func NewNATSMirror(inner Store, cfg config.NATSConfig) (*NATSMirror, error) {
	if cfg.URL == "" {
		return nil, errors.ConfigError("validation.nats.url is required for the ledger mirror").Build()
	}

	conn, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, wrap(err, "connect to NATS")
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, wrap(err, "create JetStream context")
	}

	kv, err := initKVBucket(js, cfg.KVBucket)
	if err != nil {
		conn.Close()
		return nil, wrap(err, "initialize KV bucket")
	}

	slog.Info("Ledger mirrored to NATS",
		logfields.URL(cfg.URL),
		slog.String("subject", cfg.Subject),
		slog.String("kv_bucket", cfg.KVBucket))

	m := newMirror(inner, kv, js, cfg.Subject)
	m.conn = conn
	return m, nil
}

func newMirror(inner Store, kv keyValue, js streamPublisher, subject string) *NATSMirror {
	return &NATSMirror{Store: inner, kv: kv, js: js, subject: subject}
}

func initKVBucket(js jetstream.JetStream, bucket string) (jetstream.KeyValue, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	kv, err := js.KeyValue(ctx, bucket)
	if err == nil {
		return kv, nil
	}

	kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "promptkit reference validation ledger",
		MaxBytes:    100 * 1024 * 1024,
		History:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("create KV bucket: %w", err)
	}
	slog.Info("Created KV bucket for ledger mirror", slog.String("bucket", bucket))
	return kv, nil
}

// Upsert writes o to the wrapped store and then to the KV bucket.
func (m *NATSMirror) Upsert(ctx context.Context, o Outcome) error {
	if err := m.Store.Upsert(ctx, o); err != nil {
		return err
	}

	data, err := json.Marshal(normalize(o))
	if err != nil {
		return wrap(err, "marshal outcome")
	}
	putCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if _, err := m.kv.Put(putCtx, kvKey(o.URL), data); err != nil {
		slog.Warn("Failed to mirror outcome to KV", logfields.URL(o.URL), logfields.Error(err))
	}
	return nil
}

// PublishBrokenLink publishes event as JSON on the configured subject.
func (m *NATSMirror) PublishBrokenLink(ctx context.Context, event *BrokenLinkEvent) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := m.js.Publish(ctx, m.subject, data); err != nil {
		return errors.WrapError(err, errors.CategoryNetwork, "publish broken link event").
			WithContext("subject", m.subject).Build()
	}

	slog.Debug("Published broken link event", logfields.URL(event.URL), logfields.File(event.SourceFile))
	return nil
}

// Close closes the wrapped store and the NATS connection.
func (m *NATSMirror) Close() error {
	err := m.Store.Close()
	if m.conn != nil {
		m.conn.Close()
	}
	return err
}

// kvKey encodes a URL into the KV key alphabet, which excludes ':' '/' and '?'.
func kvKey(url string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(url))
}
