package log

import "context"

// nopLogger discards everything. Used as the default when no Logger is
// supplied.
type nopLogger struct{}

// Nop returns a Logger that discards all output.
func Nop() Logger { return nopLogger{} }

func (nopLogger) Debug(string, ...Field) {}
func (nopLogger) Info(string, ...Field)  {}
func (nopLogger) Warn(string, ...Field)  {}
func (nopLogger) Error(string, ...Field) {}
func (nopLogger) Fatal(string, ...Field) {}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Fatalf(string, ...interface{}) {}

func (l nopLogger) WithField(string, interface{}) Logger { return l }
func (l nopLogger) WithFields(Fields) Logger              { return l }
func (l nopLogger) WithError(error) Logger                { return l }
func (l nopLogger) With(...Field) Logger                  { return l }
func (l nopLogger) WithContext(context.Context) Logger    { return l }
func (l nopLogger) WithComponent(string) Logger            { return l }

func (nopLogger) SetLevel(Level) {}
func (nopLogger) GetLevel() Level { return FatalLevel }
