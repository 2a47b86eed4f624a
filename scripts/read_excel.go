//go:build ignore
// +build ignore

// This script prints the contents of a generated status workbook.
//
//	go run scripts/read_excel.go status.xlsx
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

func main() {
	path := "status.xlsx"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	defer f.Close()

	props, err := f.GetDocProps()
	if err == nil {
		fmt.Printf("Title:   %s\nCreated: %s\n\n", props.Title, props.Created)
	}

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", sheet, err)
			continue
		}
		fmt.Println(strings.Repeat("=", 40))
		fmt.Printf("  %s (%d rows)\n", sheet, len(rows))
		fmt.Println(strings.Repeat("=", 40))
		for _, row := range rows {
			if len(row) == 0 {
				continue
			}
			fmt.Println("  " + strings.Join(row, " | "))
		}
		fmt.Println()
	}
}
