// Package harness runs SQL conformance scenarios against a fresh engine.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	timezone: Asia/Tokyo        # optional session timezone
//	now: 2024-01-15T10:30:00Z   # optional frozen clock
//	seed: 7                     # optional random seed
//	steps:
//	  - sql: CREATE TABLE t (id INT PRIMARY KEY, name TEXT)
//	  - sql: SELECT name FROM t ORDER BY id
//	    expect:
//	      columns: [name]
//	      rows: [[Ann], [Bob]]
//	  - sql: SELECT * FROM missing
//	    expect:
//	      error: TABLE_NOT_FOUND
//
// Expectation fields: columns, rows, row_count, message, message_contains
// and error. Unknown fields are rejected.
//
// # Deterministic Testing
//
// Every scenario runs in its own in-memory SQLite database with a fixed
// clock and seeded random source, so NOW(), UUID() and GENERATE_DATA give
// identical output across runs. RunWithGolden snapshots each step's results
// to testdata/golden/{name}.golden.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/joins.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, msg := range result.Errors {
//	    log.Println(msg)
//	}
package harness
