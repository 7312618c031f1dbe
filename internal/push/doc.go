// Package push maintains the MQTT push channel to the vendor broker.
//
// The broker delivers unsolicited attribute reports on
// iot/atr/<name>/<did>/<class>/<resource>/j. Each message is decoded and
// handed to the sink (the bot's dispatcher) with the command name from
// the topic. Connection loss and recovery drive the device availability
// signal.
//
// Subscriptions are restored automatically after a reconnect, and
// handler panics are recovered so one malformed payload cannot take the
// channel down.
package push
