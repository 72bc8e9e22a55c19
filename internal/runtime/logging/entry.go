package logging

// EntryLogger is the non-generic form of EntryLoggerAdapter.
type EntryLogger interface {
	EntryLoggerAdapter[EntryLogger]
}

// EntryLoggerAdapter describes entry-style loggers such as logrus.Entry. The
// type parameter lets loggers whose With methods return their own concrete
// type be used without a wrapper.
type EntryLoggerAdapter[T any] interface {
	Error(args ...any)
	Info(args ...any)
	Debug(args ...any)
	Trace(args ...any)
	WithError(err error) T
	WithField(key string, value any) T
}

// NewEntryServiceLogger adapts an entry-style logger. Fields are attached in
// key order and the error, if any, last.
func NewEntryServiceLogger[T EntryLoggerAdapter[T]](entry T) ServiceLogger {
	if any(entry) == nil {
		panic("logging: nil entry logger")
	}
	return entryLogger[T]{entry: entry}
}

type entryLogger[T EntryLoggerAdapter[T]] struct {
	entry T
}

func (e entryLogger[T]) With(fields LogFields) ServiceLogger {
	if len(fields) == 0 {
		return e
	}
	return entryLogger[T]{entry: e.enrich(fields, nil)}
}

func (e entryLogger[T]) Debug(msg string, fields LogFields) {
	e.enrich(fields, nil).Debug(msg)
}

func (e entryLogger[T]) Info(msg string, fields LogFields) {
	e.enrich(fields, nil).Info(msg)
}

func (e entryLogger[T]) Error(msg string, err error, fields LogFields) {
	e.enrich(fields, err).Error(msg)
}

func (e entryLogger[T]) Trace(msg string, fields LogFields) {
	e.enrich(fields, nil).Trace(msg)
}

func (e entryLogger[T]) enrich(fields LogFields, err error) T {
	entry := e.entry
	for _, k := range sortedKeys(fields) {
		entry = entry.WithField(k, fields[k])
	}
	if err != nil {
		entry = entry.WithError(err)
	}
	return entry
}
