package transform

// Staging views apply explicit type casts over the raw landing tables. They are views, so
// a value that cannot be cast fails when the view is first read, inside the staging step.
const stgOrdersSQL = `CREATE OR REPLACE VIEW stg_orders AS
SELECT
    CAST(order_id AS VARCHAR)             AS order_id,
    CAST(customer_id AS VARCHAR)          AS customer_id,
    CAST(order_created_at AS TIMESTAMP)   AS order_created_at,
    CAST(order_amount AS DOUBLE)          AS order_amount,
    CAST(currency AS VARCHAR)             AS currency,
    CAST(order_status AS VARCHAR)         AS order_status
FROM raw_orders`

const stgOrderEventsSQL = `CREATE OR REPLACE VIEW stg_order_events AS
SELECT
    CAST(event_id AS VARCHAR)             AS event_id,
    CAST(order_id AS VARCHAR)             AS order_id,
    CAST(event_type AS VARCHAR)           AS event_type,
    CAST(event_timestamp AS TIMESTAMP)    AS event_timestamp,
    CAST(source_system AS VARCHAR)        AS source_system
FROM raw_order_events`
