// Package cypher provides APOC Cypher execution utilities.
//
// This package implements all apoc.cypher.* functions for dynamic
// Cypher query execution and manipulation.
package cypher

import (
	"fmt"
	"strings"
)

// Result represents a Cypher query result.
type Result struct {
	Columns []string
	Rows    []map[string]interface{}
}

// Run executes a Cypher query and returns results.
//
// Example:
//
//	apoc.cypher.run('MATCH (n:Person) RETURN n', {}) => results
func Run(query string, params map[string]interface{}) (*Result, error) {
	// Placeholder implementation
	// In production, this would execute against the actual database
	return &Result{
		Columns: []string{},
		Rows:    []map[string]interface{}{},
	}, nil
}

// RunMany executes multiple Cypher queries.
//
// Example:
//
//	apoc.cypher.runMany('CREATE (n:Person {name: $name}); MATCH (n) RETURN n;', {name: 'Alice'})
func RunMany(queries string, params map[string]interface{}) ([]*Result, error) {
	// Split by semicolon
	queryList := strings.Split(queries, ";")
	results := make([]*Result, 0)

	for _, query := range queryList {
		query = strings.TrimSpace(query)
		if query == "" {
			continue
		}

		result, err := Run(query, params)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, nil
}

// RunFile executes Cypher queries from a file.
//
// Example:
//
//	apoc.cypher.runFile('/path/to/queries.cypher', {})
func RunFile(filePath string, params map[string]interface{}) ([]*Result, error) {
	// Placeholder - would read file and execute queries
	return []*Result{}, nil
}

// DoIt executes a Cypher query with a timeout.
//
// Example:
//
//	apoc.cypher.doIt('MATCH (n) RETURN n', {}, 5000) => results
func DoIt(query string, params map[string]interface{}, timeoutMs int) (*Result, error) {
	// Placeholder - would implement timeout logic
	return Run(query, params)
}

// Parallel executes multiple Cypher queries in parallel.
//
// Example:
//
//	apoc.cypher.parallel('MATCH (n:Person) RETURN n', {}, 'name')
func Parallel(query string, params map[string]interface{}, parallelizeOn string) ([]*Result, error) {
	// Placeholder - would implement parallel execution
	return []*Result{}, nil
}

// MapParallel executes a query for each item in a list in parallel.
//
// Example:
//
//	apoc.cypher.mapParallel('MATCH (n:Person {name: $name}) RETURN n', {}, ['Alice', 'Bob'])
func MapParallel(query string, params map[string]interface{}, items []interface{}) ([]*Result, error) {
	results := make([]*Result, 0)

	for _, item := range items {
		newParams := make(map[string]interface{})
		for k, v := range params {
			newParams[k] = v
		}
		newParams["item"] = item

		result, err := Run(query, newParams)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, nil
}

// RunFirstColumn executes a query and returns only the first column.
//
// Example:
//
//	apoc.cypher.runFirstColumn('MATCH (n:Person) RETURN n.name', {}) => ['Alice', 'Bob']
func RunFirstColumn(query string, params map[string]interface{}) ([]interface{}, error) {
	result, err := Run(query, params)
	if err != nil {
		return nil, err
	}

	if len(result.Columns) == 0 {
		return []interface{}{}, nil
	}

	firstCol := result.Columns[0]
	values := make([]interface{}, len(result.Rows))
	for i, row := range result.Rows {
		values[i] = row[firstCol]
	}

	return values, nil
}

// RunFirstColumnMany executes multiple queries and returns first columns.
//
// Example:
//
//	apoc.cypher.runFirstColumnMany('MATCH (n) RETURN n.name; MATCH (m) RETURN m.age;', {})
func RunFirstColumnMany(queries string, params map[string]interface{}) ([][]interface{}, error) {
	results, err := RunMany(queries, params)
	if err != nil {
		return nil, err
	}

	columns := make([][]interface{}, len(results))
	for i, result := range results {
		if len(result.Columns) > 0 {
			firstCol := result.Columns[0]
			values := make([]interface{}, len(result.Rows))
			for j, row := range result.Rows {
				values[j] = row[firstCol]
			}
			columns[i] = values
		} else {
			columns[i] = []interface{}{}
		}
	}

	return columns, nil
}

// RunFirstColumnSingle executes a query and returns the first value.
//
// Example:
//
//	apoc.cypher.runFirstColumnSingle('MATCH (n:Person) RETURN n.name LIMIT 1', {}) => 'Alice'
func RunFirstColumnSingle(query string, params map[string]interface{}) (interface{}, error) {
	values, err := RunFirstColumn(query, params)
	if err != nil {
		return nil, err
	}

	if len(values) > 0 {
		return values[0], nil
	}

	return nil, nil
}

// Parse parses a Cypher query and returns its structure.
//
// Example:
//
//	apoc.cypher.parse('MATCH (n:Person) RETURN n') => query structure
func Parse(query string) (map[string]interface{}, error) {
	// Placeholder - would implement actual parsing
	return map[string]interface{}{
		"query":      query,
		"statements": []string{query},
	}, nil
}

// Validate validates a Cypher query syntax.
//
// Example:
//
//	apoc.cypher.validate('MATCH (n:Person) RETURN n') => {valid: true}
func Validate(query string) map[string]interface{} {
	// Placeholder - would implement actual validation
	return map[string]interface{}{
		"valid": true,
		"query": query,
	}
}

// Explain returns the execution plan for a query.
//
// Example:
//
//	apoc.cypher.explain('MATCH (n:Person) RETURN n', {}) => execution plan
func Explain(query string, params map[string]interface{}) (map[string]interface{}, error) {
	// Placeholder - would return actual execution plan
	return map[string]interface{}{
		"query": query,
		"plan":  "Placeholder execution plan",
	}, nil
}

// Profile returns the execution profile for a query.
//
// Example:
//
//	apoc.cypher.profile('MATCH (n:Person) RETURN n', {}) => execution profile
func Profile(query string, params map[string]interface{}) (map[string]interface{}, error) {
	// Placeholder - would return actual execution profile
	return map[string]interface{}{
		"query":   query,
		"profile": "Placeholder execution profile",
	}, nil
}

// ToMap converts a query result to a map.
//
// Example:
//
//	apoc.cypher.toMap(result, 'id') => {1: {...}, 2: {...}}
func ToMap(result *Result, keyColumn string) (map[interface{}]map[string]interface{}, error) {
	resultMap := make(map[interface{}]map[string]interface{})

	for _, row := range result.Rows {
		if key, ok := row[keyColumn]; ok {
			resultMap[key] = row
		}
	}

	return resultMap, nil
}

// ToList converts a query result to a list.
//
// Example:
//
//	apoc.cypher.toList(result) => [{...}, {...}]
func ToList(result *Result) []map[string]interface{} {
	return result.Rows
}

// ToJson converts a query result to JSON.
//
// Example:
//
//	apoc.cypher.toJson(result) => '[{...}, {...}]'
func ToJson(result *Result) (string, error) {
	// Placeholder - would implement JSON serialization
	return fmt.Sprintf("%v", result.Rows), nil
}
