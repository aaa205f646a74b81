// This is the "before" program for the pgload example: a plain, blocking
// CSV to Postgres loader. It cannot be interrupted mid-load without killing
// the process. Compare with the cancellable version next door, which wraps
// each batch write in a future and races the load against a stopper.
package main

import (
	_ "embed"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/jszwec/csvutil"
)

var (
	filePath = flag.String("file", "../readings.csv", "The path to the file to load")
	connStr  = flag.String("connStr", "", "The connection string to your postgres database")
)

//go:embed schema.sql
var schemaSQL string

//go:embed insert.sql
var insertSQL string

//go:embed drop.sql
var dropTable string

// Row is a single meter reading from the CSV file.
type Row struct {
	Meter string    `csv:"meter" db:"meter"`
	Value float64   `csv:"value" db:"value"`
	Taken time.Time `csv:"taken" db:"taken"`
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

func load(csvFile io.Reader, tx *sqlx.Tx) (int, int, error) {
	r := csv.NewReader(csvFile)
	dec, err := csvutil.NewDecoder(r)
	if err != nil {
		return 0, 0, err
	}
	dec.Register(unmarshalTime)

	numRecords := 0
	numErrors := 0
	for {
		var row Row
		err = dec.Decode(&row)
		if err == io.EOF {
			break
		}
		numRecords++
		if err != nil {
			log.Printf("error: %d: %s", numRecords, err)
			numErrors++
			continue
		}
		if _, err := tx.NamedExec(insertSQL, &row); err != nil {
			return 0, 0, err
		}
	}

	return numRecords, numErrors, nil
}

func main() {
	flag.Parse()

	file, err := os.Open(*filePath)
	if err != nil {
		log.Fatal(err)
	}
	defer file.Close()

	db, err := sqlx.Open("pgx", *connStr)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if _, err = db.Exec(dropTable); err != nil {
		log.Fatal(err)
	}
	if _, err = db.Exec(schemaSQL); err != nil {
		log.Fatal(err)
	}

	tx, err := db.Beginx()
	if err != nil {
		log.Fatal(err)
	}

	start := time.Now()
	numRecords, numErrors, err := load(file, tx)
	if err != nil {
		tx.Rollback()
		log.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("loaded %d records (%d bad) in %v\n", numRecords, numErrors, time.Since(start))
}
