// Package query provides query building and validation for evidence records.
//
// # Query Filters
//
// An evidence.Query carries these filters, which the storage backends
// apply:
//
//   - Time range filtering (start_time, end_time)
//   - Protocol/route/upstream filtering
//   - Status code threshold filtering
//   - Status filtering (success, error)
//   - Pagination (limit, offset)
//   - Sorting (by request, recorded or response time, status, latency)
//
// # Query Validation
//
// The validator ensures query parameters are valid before execution:
//
//   - Limit >= 0 and <= MaxLimit (0 means "use DefaultLimit" once
//     ApplyDefaults has run)
//   - Offset >= 0
//   - Sort field is one of ValidSortFields (request_time, recorded_time,
//     response_time, response_status, upstream_latency)
//   - Sort order is valid (asc, desc)
//   - Time range is valid (start <= end)
//   - Status thresholds are valid (min <= max)
//
// # Basic Usage
//
//	// Create query
//	query := &evidence.Query{
//	    StartTime: &startTime,
//	    EndTime:   &endTime,
//	    Route:     "/api",
//	    Status:    "error",
//	    Limit:     100,
//	    SortBy:    "request_time",
//	    SortOrder: "desc",
//	}
//
//	// Validate query
//	if err := Validate(query); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Execute query
//	records, err := storage.Query(ctx, query)
//	if err != nil {
//	    log.Fatal(err)
//	}
package query
