// gohas reads a stream of Galileo E6-B HAS pages from stdin, one JSON
// object per line, reassembles and decodes the multi-page correction
// messages and writes a readable form of each correction record to
// stdout.  Pages that cannot be decoded yet are buffered; messages
// that cannot be recovered or parsed are logged and dropped.
//
// Each input line looks like:
//
//	{"status":1,"message_type":1,"message_id":5,"message_size":10,
//	 "message_page_id":100,"payload":"0101..."}
//
// where the payload is the 424-bit encoded page body as a string of
// '0' and '1' characters, the form in which the E6 telemetry decoder
// emits pages.
//
// The -c flag names a YAML config file.  Without one the program runs
// with the default settings: event log to stderr, no navdata monitor,
// no metrics endpoint.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/goblimey/go-tools/dailylogger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goblimey/go-has/config"
	"github.com/goblimey/go-has/has/metrics"
	"github.com/goblimey/go-has/has/mt1"
	"github.com/goblimey/go-has/has/page"
	"github.com/goblimey/go-has/has/receiver"
)

// pageLine is the JSON form of one HAS page on stdin.
type pageLine struct {
	Status        uint8  `json:"status"`
	MessageType   uint8  `json:"message_type"`
	MessageID     uint8  `json:"message_id"`
	MessageSize   uint8  `json:"message_size"`
	MessagePageID uint8  `json:"message_page_id"`
	Payload       string `json:"payload"`
}

func main() {

	var configFile string
	flag.StringVar(&configFile, "c", "", "name of the YAML config file")
	flag.Parse()

	cfg := &config.Config{}
	if configFile != "" {
		var err error
		cfg, err = config.GetConfig(configFile)
		if err != nil {
			log.Fatalf("gohas: %v", err)
		}
	}

	logger := makeLogger(cfg)

	var pipelineMetrics *metrics.Metrics
	if cfg.MetricsAddress != "" {
		pipelineMetrics = metrics.New(prometheus.DefaultRegisterer)
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			err := http.ListenAndServe(cfg.MetricsAddress, nil)
			if err != nil {
				logger.Error("metrics endpoint failed", "error", err.Error())
			}
		}()
	}

	pages := make(chan any)
	records := make(chan *mt1.Data)

	var monitor chan *receiver.NavMessagePacket
	if cfg.EnableNavdataMonitor {
		monitor = make(chan *receiver.NavMessagePacket)
		go func() {
			for packet := range monitor {
				logger.Debug("navdata monitor packet",
					"system", packet.System, "signal", packet.Signal,
					"bits", len(packet.NavMessage))
			}
		}()
	}

	rx := receiver.New(logger, pipelineMetrics, records, monitor)
	go func() {
		rx.Run(context.Background(), pages)
		close(records)
		if monitor != nil {
			close(monitor)
		}
	}()

	go readPages(os.Stdin, pages, logger)

	for record := range records {
		fmt.Println(record.String())
	}
}

// readPages reads page lines from the reader until end of file and
// sends them to the receiver.  Lines that do not parse are logged and
// skipped.
func readPages(in *os.File, pages chan<- any, logger *slog.Logger) {
	defer close(pages)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 4096), 1024*1024)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var pl pageLine
		if err := json.Unmarshal(line, &pl); err != nil {
			logger.Warn("skipping a malformed input line",
				"line", lineNumber, "error", err.Error())
			continue
		}

		p, err := page.FromBitString(pl.Status, pl.MessageType, pl.MessageID,
			pl.MessageSize, pl.MessagePageID, pl.Payload)
		if err != nil {
			logger.Warn("skipping a malformed page",
				"line", lineNumber, "error", err.Error())
			continue
		}

		pages <- p
	}

	if err := scanner.Err(); err != nil {
		logger.Error("error reading the page stream", "error", err.Error())
	}
}

// makeLogger builds the event logger: a daily rolling log file when
// log_events is set, otherwise stderr.
func makeLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	if cfg.LogEvents {
		directory := cfg.EventLogDirectory
		if directory == "" {
			directory = "."
		}
		dailyLog := dailylogger.New(directory, "gohas.", ".log")
		return slog.New(slog.NewTextHandler(dailyLog, &slog.HandlerOptions{Level: level}))
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
