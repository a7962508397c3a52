package database

import (
	"time"
)

const selectRecords = `
	SELECT id, timestamp, operation, action, path, file_name, line, error_message
	FROM operations
`

// Recent returns the N most recent entries
func (h *HistoryDB) Recent(limit int) ([]Record, error) {
	return h.queryRecords(selectRecords+`
	ORDER BY timestamp DESC, id DESC
	LIMIT ?
	`, limit)
}

// RecentPaginated returns paginated recent entries with total count
func (h *HistoryDB) RecentPaginated(limit, offset int) ([]Record, int, error) {
	var totalCount int
	if err := h.db.QueryRow("SELECT COUNT(*) FROM operations").Scan(&totalCount); err != nil {
		return nil, 0, err
	}

	records, err := h.queryRecords(selectRecords+`
	ORDER BY timestamp DESC, id DESC
	LIMIT ? OFFSET ?
	`, limit, offset)
	return records, totalCount, err
}

// ByOperation returns entries of one operation (mkdir, touch, rm_dir, rm_file)
func (h *HistoryDB) ByOperation(operation string, limit int) ([]Record, error) {
	return h.queryRecords(selectRecords+`
	WHERE operation = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT ?
	`, operation, limit)
}

// ByAction returns entries filtered by outcome (done, rejected, failed)
func (h *HistoryDB) ByAction(action string, limit int) ([]Record, error) {
	return h.queryRecords(selectRecords+`
	WHERE action = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT ?
	`, action, limit)
}

// ByPath returns entries whose path matches a SQL LIKE pattern
func (h *HistoryDB) ByPath(pathPattern string, limit int) ([]Record, error) {
	return h.queryRecords(selectRecords+`
	WHERE path LIKE ?
	ORDER BY timestamp DESC, id DESC
	LIMIT ?
	`, pathPattern, limit)
}

// ByDateRange returns entries within a time range
func (h *HistoryDB) ByDateRange(start, end time.Time) ([]Record, error) {
	return h.queryRecords(selectRecords+`
	WHERE timestamp BETWEEN ? AND ?
	ORDER BY timestamp DESC, id DESC
	`, start.UTC(), end.UTC())
}

// countBy returns row counts grouped by column since a point in time
func (h *HistoryDB) countBy(column string, since time.Time) (map[string]int, error) {
	rows, err := h.db.Query(`
	SELECT `+column+`, COUNT(*)
	FROM operations
	WHERE timestamp >= ?
	GROUP BY `+column, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		counts[key] = count
	}
	return counts, rows.Err()
}

// Stats holds aggregated statistics
type Stats struct {
	TotalDone     int
	TotalRejected int
	TotalFailed   int
	ByOperation   map[string]int
	ByAction      map[string]int
	StartDate     time.Time
	EndDate       time.Time
}

// Stats returns comprehensive statistics for the last days
func (h *HistoryDB) Stats(days int) (*Stats, error) {
	now := time.Now()
	since := now.AddDate(0, 0, -days)

	stats := &Stats{
		StartDate: since,
		EndDate:   now,
	}

	var err error
	stats.ByAction, err = h.countBy("action", since)
	if err != nil {
		return nil, err
	}
	stats.TotalDone = stats.ByAction["done"]
	stats.TotalRejected = stats.ByAction["rejected"]
	stats.TotalFailed = stats.ByAction["failed"]

	stats.ByOperation, err = h.countBy("operation", since)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// DeleteOlderThan removes records older than specified days (retention)
func (h *HistoryDB) DeleteOlderThan(days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days).UTC()

	result, err := h.db.Exec(`DELETE FROM operations WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// queryRecords is a helper function to execute queries and scan results
func (h *HistoryDB) queryRecords(query string, args ...interface{}) ([]Record, error) {
	rows, err := h.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(
			&r.ID, &r.Timestamp, &r.Operation, &r.Action, &r.Path,
			&r.FileName, &r.Line, &r.ErrorMessage,
		); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
