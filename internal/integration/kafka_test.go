//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/vehicle-icon-xref/internal/adapter/kafka"
	"github.com/couchcryptid/vehicle-icon-xref/internal/catalog"
	"github.com/couchcryptid/vehicle-icon-xref/internal/domain"
	"github.com/couchcryptid/vehicle-icon-xref/internal/fleet"
	"github.com/couchcryptid/vehicle-icon-xref/internal/lookup"
	"github.com/couchcryptid/vehicle-icon-xref/internal/observability"
	"github.com/couchcryptid/vehicle-icon-xref/internal/pipeline"
	"github.com/couchcryptid/vehicle-icon-xref/internal/report"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const (
	testCoverageTopic = "test-vehicle-icon-coverage"
	testLookupTopic   = "test-vehicle-icon-lookup"
)

const testSpecs = `{
  "mercedes_e_class_2018": {"specs": {"manufacturer": "Mercedes-Benz", "model": "E-Class", "year": 2018}, "label": "Mercedes-Benz E-Class"},
  "ford_focus_st_2015": {"specs": {"manufacturer": "Ford", "model": "Focus ST", "year": 2015}, "label": "Ford Focus ST"}
}`

const testCensus = "BodyType,Make,GenModel,Model,YearFirstUsed,YearManufacture,LicenceStatus,2024,2023\n" +
	"Cars,MERCEDES,MERCEDES E CLASS,E220 D AMG LINE,2018,2018,Licensed,900,1000\n" +
	"Cars,FORD,FORD FOCUS,FOCUS ST-3,2015,2015,Licensed,400,380\n" +
	"Cars,DACIA,DACIA SANDERO,SANDERO STEPWAY,2019,2019,Licensed,300,200\n"

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("vehicle-icon-xref"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "find controller")
	cconn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer cconn.Close()

	require.NoError(t, cconn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}), "create topic %s", topic)
}

func readMessages(ctx context.Context, t *testing.T, broker, topic string, n int) []kafkago.Message {
	t.Helper()
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	defer r.Close()

	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msgs := make([]kafkago.Message, 0, n)
	for len(msgs) < n {
		msg, err := r.ReadMessage(readCtx)
		require.NoError(t, err, "read from %s", topic)
		msgs = append(msgs, msg)
	}
	return msgs
}

func headers(msg kafkago.Message) map[string]string {
	out := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		out[h.Key] = string(h.Value)
	}
	return out
}

// TestKafkaPublish runs crossref and lookup against real files and checks
// that every result and every lookup make arrives on its topic.
func TestKafkaPublish(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testCoverageTopic)
	createTopic(t, broker, testLookupTopic)

	root := t.TempDir()
	specsPath := filepath.Join(root, "vehicle_models.json")
	censusPath := filepath.Join(root, "df_VEH0124.csv")
	iconDir := filepath.Join(root, "gfx", "vehicle_icons", "gt")
	outDir := filepath.Join(root, "out")
	require.NoError(t, os.MkdirAll(iconDir, 0o755))
	require.NoError(t, os.WriteFile(specsPath, []byte(testSpecs), 0o600))
	require.NoError(t, os.WriteFile(censusPath, []byte(testCensus), 0o600))
	for _, name := range []string{"mercedes_e_class_2018.png", "ford_focus_st_2015.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(iconDir, name), []byte("png"), 0o600))
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	coverageWriter := kafka.NewWriter([]string{broker}, testCoverageTopic, 10*time.Second, logger)
	t.Cleanup(func() { _ = coverageWriter.Close() })

	xref := pipeline.NewCrossRef(
		catalog.NewLoader(specsPath, iconDir, ".png", "gfx/vehicle_icons/gt", logger),
		fleet.NewReader(censusPath, logger),
		report.NewFileWriter(outDir, logger),
		coverageWriter,
		pipeline.CrossRefSources{Fleet: censusPath, Icons: iconDir},
		16, logger, observability.NewMetrics(),
	)
	xsum, err := xref.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, xsum.Published)

	msgs := readMessages(ctx, t, broker, testCoverageTopic, 3)
	statuses := make(map[string]string, len(msgs))
	for _, msg := range msgs {
		var r domain.MatchResult
		require.NoError(t, json.Unmarshal(msg.Value, &r))
		assert.Equal(t, string(r.Status), headers(msg)[domain.HeaderStatus])
		assert.Equal(t, domain.EventCoverageResult, headers(msg)[domain.HeaderEventType])
		statuses[string(msg.Key)] = string(r.Status)
	}
	assert.Equal(t, map[string]string{
		"MERCEDES|MERCEDES E CLASS|E220 D AMG LINE|2018": "covered",
		"FORD|FORD FOCUS|FOCUS ST-3|2015":                "covered",
		"DACIA|DACIA SANDERO|SANDERO STEPWAY|2019":       "clearly_missing",
	}, statuses)

	lookupWriter := kafka.NewWriter([]string{broker}, testLookupTopic, 10*time.Second, logger)
	t.Cleanup(func() { _ = lookupWriter.Close() })

	source := domain.LookupSource{
		CoveredCSV: filepath.Join(outDir, report.CoveredCSV),
		WeakCSV:    filepath.Join(outDir, report.WeakCSV),
	}
	lk := pipeline.NewLookup(report.ReadScoredRows, lookup.NewFileWriter(filepath.Join(root, "lookup.json")),
		lookupWriter, source, "gfx/vehicle_icons/", logger, observability.NewMetrics())
	lsum, err := lk.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, lsum.Published)

	lmsgs := readMessages(ctx, t, broker, testLookupTopic, 2)
	assert.Equal(t, "ford", string(lmsgs[0].Key))
	assert.Equal(t, "mercedes", string(lmsgs[1].Key))
	var body map[string]any
	require.NoError(t, json.Unmarshal(lmsgs[1].Value, &body))
	assert.Equal(t, "mercedes", body["make"])
	assert.Equal(t, "gfx/vehicle_icons/gt/mercedes_e_class_2018.png", body["default_icon"])
	assert.Equal(t, domain.EventMakeLookup, headers(lmsgs[1])[domain.HeaderEventType])
}
