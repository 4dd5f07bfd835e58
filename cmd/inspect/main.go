package main

import (
	"chat-gate/infrastructure/storage"
	"chat-gate/internal"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", "./badger", "Path to badger DB")
	tableName := flag.String("table", "all", "Table to dump: users, messages or all")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	store := storage.NewStore(db, logs.GetLoggerFromString("WARN"), 0)
	rows, err := readRows(store, *tableName)
	if err != nil {
		log.Fatal("Error while reading rows: ", err)
	}
	render(os.Stdout, rows)
}

func readRows(store *storage.Store, tableName string) ([]internal.InspectRow, error) {
	switch tableName {
	case "all", internal.TableUsers, internal.TableMessages:
	default:
		return nil, fmt.Errorf("unknown table %q", tableName)
	}

	var rows []internal.InspectRow
	err := store.View(func(tx *storage.Tx) error {
		if tableName == "all" || tableName == internal.TableUsers {
			users, err := tx.Users().All()
			if err != nil {
				return err
			}
			rows = append(rows, internal.UserRows(users)...)
		}
		if tableName == "all" || tableName == internal.TableMessages {
			messages, err := tx.Messages().All()
			if err != nil {
				return err
			}
			rows = append(rows, internal.MessageRows(messages)...)
		}
		return nil
	})
	return rows, err
}

func render(out io.Writer, rows []internal.InspectRow) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Key", "Type", "Time", "Entity", "Detail", "Flags"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, row := range rows {
		table.Append([]string{row.Key, row.Type, row.Timestamp, row.EntityID, row.Detail, row.Flags})
	}
	table.Render()
}

// openDB opens the directory read-only, next to a running server.
func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}
