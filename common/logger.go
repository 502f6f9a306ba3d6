package common

import "fmt"

type LogLevel int32

const (
	DEBUG_INFO_DETAIL     LogLevel = 1
	DEBUG_INFO            LogLevel = 2
	RDB_OP_FUNC_CALL      LogLevel = 4
	BUFFER_INTERNAL_STATE LogLevel = 8
	INFO                  LogLevel = 16
	WARN                  LogLevel = 32
	ERROR                 LogLevel = 64
	FATAL                 LogLevel = 128
)

// levels which ShPrintf actually prints
var LogLevelSetting LogLevel = WARN | ERROR | FATAL

func ShPrintf(logLevel LogLevel, fmtStl string, a ...interface{}) {
	if logLevel&LogLevelSetting > 0 {
		fmt.Printf(fmtStl, a...)
	}
}
