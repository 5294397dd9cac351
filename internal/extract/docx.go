// Package extract pulls raw tabular and textual data out of downloaded
// documents: tables from Word files, text from PDFs, grids from workbooks.
package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/baystatedata/covidetl/internal/etl"
)

// DocxTables reads every table embedded in a Word document, in document
// order. Cell text is concatenated across runs and stripped of embedded
// spaces. Returns an empty slice when the document has no tables.
func DocxTables(path string) ([]etl.RawTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	return docxTablesFromBytes(data)
}

// DocxFirstTable returns the first table of the document; remaining tables
// are discarded. Result is nil when the document contains no tables, and
// downstream normalization will then fail on the missing header row.
func DocxFirstTable(path string) (etl.RawTable, error) {
	tables, err := DocxTables(path)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, nil
	}
	return tables[0], nil
}

func docxTablesFromBytes(data []byte) ([]etl.RawTable, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open docx archive: %w", err)
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, fmt.Errorf("word/document.xml not found in archive")
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	return parseDocxTables(rc)
}

// parseDocxTables walks the w:tbl/w:tr/w:tc structure of document.xml.
// Nested tables are flattened into their enclosing cell, which is adequate
// for the flat report tables this pipeline consumes.
func parseDocxTables(r io.Reader) ([]etl.RawTable, error) {
	decoder := xml.NewDecoder(r)

	var tables []etl.RawTable
	var table etl.RawTable
	var row []string
	var cell strings.Builder
	tableDepth := 0
	inCell := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth++
				if tableDepth == 1 {
					table = etl.RawTable{}
				}
			case "tr":
				if tableDepth == 1 {
					row = nil
				}
			case "tc":
				if tableDepth == 1 {
					inCell = true
					cell.Reset()
				}
			}

		case xml.CharData:
			if inCell {
				cell.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "tbl":
				if tableDepth == 1 && len(table) > 0 {
					tables = append(tables, table)
				}
				tableDepth--
			case "tr":
				if tableDepth == 1 && row != nil {
					table = append(table, row)
				}
			case "tc":
				if tableDepth == 1 && inCell {
					inCell = false
					row = append(row, strings.ReplaceAll(cell.String(), " ", ""))
				}
			}
		}
	}

	return tables, nil
}
