// Copyright 2025 AxonFlow
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver

	"github.com/governex-labs/workflow-orchestrator/connectors/base"
)

const (
	// DefaultMaxOpenConns is the default maximum number of open connections
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections
	DefaultMaxIdleConns = 5
	// DefaultConnMaxLifetime is the default maximum connection lifetime
	DefaultConnMaxLifetime = 5 * time.Minute
	// DefaultTimeout is the default query timeout
	DefaultTimeout = 30 * time.Second
)

// MySQLConnector backs the HR-system approver-resolution provider: a
// read-only lookup of a beneficiary's manager chain and delegate.
type MySQLConnector struct {
	config *base.ConnectorConfig
	db     *sql.DB
	logger *log.Logger
}

// NewMySQLConnector creates a new MySQL connector instance
func NewMySQLConnector() *MySQLConnector {
	return &MySQLConnector{
		logger: log.New(os.Stdout, "[CONNECTOR_MYSQL] ", log.LstdFlags),
	}
}

// Connect establishes a connection to MySQL with connection pooling. The DSN
// comes from config.ConnectionURL (GOVX_<NAME>_URL); HR-system connections
// are always configured this way, never via discrete host/port options.
func (c *MySQLConnector) Connect(ctx context.Context, config *base.ConnectorConfig) error {
	c.config = config

	dsn, err := c.buildDSN(config)
	if err != nil {
		return base.NewConnectorError(config.Name, "Connect", "failed to build DSN", err)
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return base.NewConnectorError(config.Name, "Connect", "failed to open connection", err)
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return base.NewConnectorError(config.Name, "Connect", "failed to ping database", err)
	}

	c.db = db
	c.logger.Printf("Connected to MySQL: %s", config.Name)

	return nil
}

// buildDSN validates the connection URL, appends parseTime=true when the URL
// does not set parseTime, and prepends the configured username and password
// when the URL carries no credentials.
func (c *MySQLConnector) buildDSN(config *base.ConnectorConfig) (string, error) {
	if config.ConnectionURL == "" {
		return "", fmt.Errorf("connection URL is required")
	}

	dsn := config.ConnectionURL
	if !strings.Contains(dsn, "parseTime") {
		if strings.Contains(dsn, "?") {
			dsn += "&parseTime=true"
		} else {
			dsn += "?parseTime=true"
		}
	}

	if config.Credentials["username"] != "" && !strings.Contains(dsn, "@") {
		dsn = fmt.Sprintf("%s:%s@%s", config.Credentials["username"], config.Credentials["password"], dsn)
	}

	return dsn, nil
}

// Disconnect closes the database connection pool
func (c *MySQLConnector) Disconnect(ctx context.Context) error {
	if c.db == nil {
		return nil
	}

	if err := c.db.Close(); err != nil {
		return base.NewConnectorError(c.Name(), "Disconnect", "failed to close connection", err)
	}

	c.logger.Printf("Disconnected from MySQL: %s", c.Name())
	return nil
}

// HealthCheck verifies the database connection is healthy
func (c *MySQLConnector) HealthCheck(ctx context.Context) (*base.HealthStatus, error) {
	if c.db == nil {
		return &base.HealthStatus{
			Healthy:   false,
			Error:     "database not connected",
			Timestamp: time.Now(),
		}, nil
	}

	start := time.Now()
	err := c.db.PingContext(ctx)
	latency := time.Since(start)

	if err != nil {
		return &base.HealthStatus{
			Healthy:   false,
			Latency:   latency,
			Timestamp: time.Now(),
			Error:     err.Error(),
		}, nil
	}

	stats := c.db.Stats()
	return &base.HealthStatus{
		Healthy: true,
		Latency: latency,
		Details: map[string]string{
			"open_connections": strconv.Itoa(stats.OpenConnections),
			"in_use":           strconv.Itoa(stats.InUse),
			"idle":             strconv.Itoa(stats.Idle),
		},
		Timestamp: time.Now(),
	}, nil
}

// Query executes a SELECT query and returns results
func (c *MySQLConnector) Query(ctx context.Context, query *base.Query) (*base.QueryResult, error) {
	if c.db == nil {
		return nil, base.NewConnectorError(c.Name(), "Query", "database not connected", nil)
	}

	timeout := query.Timeout
	if timeout == 0 && c.config != nil {
		timeout = c.config.Timeout
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := c.positionalArgs(query.Parameters)

	start := time.Now()
	rows, err := c.db.QueryContext(queryCtx, query.Statement, args...)
	if err != nil {
		return nil, base.NewConnectorError(c.Name(), "Query", "query execution failed", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, base.NewConnectorError(c.Name(), "Query", "failed to get columns", err)
	}

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, base.NewConnectorError(c.Name(), "Query", "failed to get column types", err)
	}

	results := make([]map[string]interface{}, 0)
	for rows.Next() {
		if query.Limit > 0 && len(results) >= query.Limit {
			break
		}

		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, base.NewConnectorError(c.Name(), "Query", "failed to scan row", err)
		}

		row := make(map[string]interface{})
		for i, col := range columns {
			row[col] = c.convertValue(values[i], columnTypes[i])
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, base.NewConnectorError(c.Name(), "Query", "error during row iteration", err)
	}

	duration := time.Since(start)
	c.logger.Printf("Query executed: %d rows in %v", len(results), duration)

	return &base.QueryResult{
		Rows:      results,
		RowCount:  len(results),
		Duration:  duration,
		Connector: c.Name(),
	}, nil
}

// Execute runs INSERT, UPDATE, DELETE, or other write operations
func (c *MySQLConnector) Execute(ctx context.Context, cmd *base.Command) (*base.CommandResult, error) {
	if c.db == nil {
		return nil, base.NewConnectorError(c.Name(), "Execute", "database not connected", nil)
	}

	timeout := cmd.Timeout
	if timeout == 0 && c.config != nil {
		timeout = c.config.Timeout
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := c.positionalArgs(cmd.Parameters)

	start := time.Now()
	result, err := c.db.ExecContext(execCtx, cmd.Statement, args...)
	if err != nil {
		return nil, base.NewConnectorError(c.Name(), "Execute", "command execution failed", err)
	}

	duration := time.Since(start)

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.logger.Printf("Warning: could not get rows affected: %v", err)
		rowsAffected = 0
	}

	c.logger.Printf("Command executed: %d rows affected in %v", rowsAffected, duration)

	return &base.CommandResult{
		Success:      true,
		RowsAffected: int(rowsAffected),
		Duration:     duration,
		Message:      fmt.Sprintf("%s executed successfully", cmd.Action),
		Connector:    c.Name(),
	}, nil
}

// Name returns the connector name
func (c *MySQLConnector) Name() string {
	if c.config == nil {
		return "mysql"
	}
	return c.config.Name
}

// Type returns the connector type
func (c *MySQLConnector) Type() string {
	return "mysql"
}

// Version returns the connector version
func (c *MySQLConnector) Version() string {
	return "1.0.0"
}

// Capabilities returns the list of supported capabilities
func (c *MySQLConnector) Capabilities() []string {
	return []string{"query", "execute", "connection_pooling"}
}

// positionalArgs converts a parameter map keyed by numeric position ("1",
// "2", ...) into an ordered argument slice for MySQL's ? placeholders.
func (c *MySQLConnector) positionalArgs(params map[string]interface{}) []interface{} {
	if len(params) == 0 {
		return nil
	}

	keys := make([]int, 0, len(params))
	for key := range params {
		if k, err := strconv.Atoi(key); err == nil {
			keys = append(keys, k)
		}
	}
	sort.Ints(keys)

	args := make([]interface{}, 0, len(keys))
	for _, k := range keys {
		args = append(args, params[strconv.Itoa(k)])
	}
	return args
}

// convertValue converts database values to appropriate Go types
func (c *MySQLConnector) convertValue(val interface{}, colType *sql.ColumnType) interface{} {
	if val == nil {
		return nil
	}

	switch v := val.(type) {
	case []byte:
		typeName := strings.ToUpper(colType.DatabaseTypeName())
		switch {
		case strings.Contains(typeName, "CHAR"),
			strings.Contains(typeName, "TEXT"),
			strings.Contains(typeName, "ENUM"),
			strings.Contains(typeName, "SET"),
			typeName == "JSON":
			return string(v)
		case strings.Contains(typeName, "DECIMAL"),
			strings.Contains(typeName, "NUMERIC"):
			return string(v)
		default:
			return v
		}
	default:
		return v
	}
}
