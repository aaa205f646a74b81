// This is the cancellable version of the pgload example. Each batch write is
// a future bridged from blocking pgx code, retried with exponential backoff,
// and raced against a stopper that fires on Ctrl-C or after a deadline.
// Interrupting the load never tears down a batch mid-write: the in-flight
// batch keeps running to completion unobserved, and the loader simply stops
// starting new ones.
package main

import (
	"context"
	_ "embed"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jszwec/csvutil"

	"github.com/gostdlib/futures"
	"github.com/gostdlib/futures/cancel"
	"github.com/gostdlib/futures/exec"
	"github.com/gostdlib/futures/retry"
)

var (
	filePath = flag.String("file", "../readings.csv", "The path to the file to load")
	connStr  = flag.String("connStr", "", "The connection string to your postgres database")
	deadline = flag.Duration("deadline", time.Minute, "Give up on the load after this long")
)

const batchSize = 10000

//go:embed schema.sql
var schemaSQL string

//go:embed drop.sql
var dropTable string

const insertSQL = `INSERT INTO readings (meter, value, taken) VALUES ($1, $2, $3)`

// Row is a single meter reading from the CSV file.
type Row struct {
	Meter string    `csv:"meter"`
	Value float64   `csv:"value"`
	Taken time.Time `csv:"taken"`
}

func unmarshalTime(data []byte, t *time.Time) error {
	var err error
	if len(data) > 0 {
		*t, err = time.Parse("2006-01-02 15:04:05", string(data))
		if err != nil {
			return err
		}
	}
	return nil
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	flag.Parse()

	ctx := context.Background()

	// Setup DB connection.
	connCtx, connCancel := context.WithTimeout(ctx, 10*time.Second)
	pool, err := pgxpool.Connect(connCtx, *connStr)
	if err != nil {
		log.Fatalf("cannot connect to Postgres: %s", err)
	}
	connCancel()
	defer pool.Close()

	if _, err = pool.Exec(ctx, dropTable); err != nil {
		log.Fatalf("could not drop an existing readings table: %s", err)
	}
	if _, err = pool.Exec(ctx, schemaSQL); err != nil {
		log.Fatalf("could not create the readings table: %s", err)
	}

	file, err := os.Open(*filePath)
	if err != nil {
		log.Fatalf("cannot open our file: %s", err)
	}
	defer file.Close()

	dec, err := csvutil.NewDecoder(csv.NewReader(file))
	if err != nil {
		log.Fatalf("cannot create a CSV decoder: %s", err)
	}
	dec.Register(unmarshalTime)

	// The stopper. One Signal serves every batch race: the races run one at
	// a time, so each borrows the stopper for the duration of its batch.
	stop := &futures.Signal{}
	time.AfterFunc(*deadline, stop.Fire)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		stop.Fire()
	}()

	e, err := exec.New("pgload")
	if err != nil {
		log.Fatalf("cannot create an executor: %s", err)
	}
	defer e.Close()

	start := time.Now()
	loaded := 0
	cancelled := false

	for {
		rows, err := readBatch(dec)
		if err != nil {
			log.Fatalf("cannot read batch: %s", err)
		}
		if len(rows) == 0 {
			break
		}

		race := cancel.TryWith[int, struct{}](
			retry.New(
				backoff.NewExponentialBackOff(),
				func() futures.Fallible[int] {
					return futures.Go(ctx, func(ctx context.Context) (int, error) {
						return writeBatch(ctx, pool, rows)
					})
				},
			),
			futures.Infallible[struct{}](stop),
		)

		n, err := exec.RunTry[int](ctx, e, race)
		if err != nil {
			if cancel.IsStopped(err) {
				cancelled = true
				break
			}
			log.Fatalf("batch write failed: %s", err)
		}
		loaded += n
	}

	if cancelled {
		fmt.Printf("load cancelled after %d records in %v\n", loaded, time.Since(start))
	} else {
		fmt.Printf("loaded %d records in %v\n", loaded, time.Since(start))
	}
	fmt.Println("executor stats: ", e.Stats())
}

// readBatch decodes up to batchSize rows. Bad rows are logged and skipped.
func readBatch(dec *csvutil.Decoder) ([]Row, error) {
	rows := make([]Row, 0, batchSize)
	for len(rows) < batchSize {
		var row Row
		err := dec.Decode(&row)
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			log.Printf("skipping bad row: %s", err)
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// writeBatch sends one batch of inserts. Fatal Postgres errors are marked
// permanent so the retrier gives up on them immediately.
func writeBatch(ctx context.Context, pool *pgxpool.Pool, rows []Row) (int, error) {
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(insertSQL, row.Meter, row.Value, row.Taken)
	}

	results := pool.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		if _, err := results.Exec(); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) {
				if pgErr.Severity == "FATAL" {
					return 0, backoff.Permanent(err)
				}
				// Error codes I've determined are fatal.
				switch pgErr.Code {
				case "25P02", "42703", "22P04", "22021", "42601", "42P01":
					return 0, backoff.Permanent(err)
				}
			}
			return 0, err
		}
	}
	return len(rows), nil
}
