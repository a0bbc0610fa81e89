package notify

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"
)

// ExportNotifier renders the mutated record as a one-row CSV and logs a
// simulated email export, mirroring the per-table CSV/email trail the
// dispatch office relies on. Delivery is a simulation: the message body
// and attachment go to the process log.
type ExportNotifier struct {
	// To is the mailbox receiving export emails.
	To string
}

func NewExportNotifier(to string) *ExportNotifier {
	if to == "" {
		to = "tornadoGOtaxi@outlook.com"
	}
	return &ExportNotifier{To: to}
}

func (e *ExportNotifier) Notify(event Event) {
	csvData, err := RecordToCSV(event.Record)
	if err != nil {
		log.Printf("❌ Failed to generate CSV export for %s: %v", event.Table, err)
		return
	}
	if csvData == "" {
		return
	}

	timestamp := time.Now().UTC().Format(time.RFC3339)
	subject := fmt.Sprintf("Data %s: %s - %s", event.Action, event.Table, timestamp)
	filename := fmt.Sprintf("%s_%s_%s.csv", event.Table, event.Action, timestamp)

	log.Println("--- SIMULATING EMAIL EXPORT ---")
	log.Printf("   To: %s", e.To)
	log.Printf("   Subject: %s", subject)
	log.Printf("   Attachment: %s", filename)
	log.Printf("   Event: %s", event.EventType)
	log.Print(csvData)
	log.Println("--- END SIMULATION ---")
}

// RecordToCSV flattens a record into a header row plus one value row.
// Nested values are embedded as JSON, matching the original export format.
func RecordToCSV(record interface{}) (string, error) {
	if record == nil {
		return "", nil
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return "", err
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return "", err
	}
	if len(fields) == 0 {
		return "", nil
	}

	headers := make([]string, 0, len(fields))
	for k := range fields {
		headers = append(headers, k)
	}
	sort.Strings(headers)

	row := make([]string, len(headers))
	for i, h := range headers {
		row[i] = csvValue(fields[h])
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(headers); err != nil {
		return "", err
	}
	if err := w.Write(row); err != nil {
		return "", err
	}
	w.Flush()
	return buf.String(), w.Error()
}

func csvValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64, bool:
		return fmt.Sprintf("%v", val)
	default:
		nested, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(nested)
	}
}
