package errutil

var ErrorContext = errorContext
