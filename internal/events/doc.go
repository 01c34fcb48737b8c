/*
Package events forwards delivery reports to an event broker so other systems
can observe notification outcomes.

Broker connections live behind one-method interfaces (NATSClient,
AMQPPublisher, KafkaWriter) so the sinks can be exercised without a running
broker. The New* constructors dial the real client libraries.
*/
package events
