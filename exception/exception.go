package exception

import (
	"os"
	"runtime/debug"

	"github.com/mezonai/simplechain/logx"
	"github.com/mezonai/simplechain/monitoring"
)

func SafeGo(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				monitoring.IncreasePanicCount()
				logx.Error("PANIC", "Panic in: ", name, " ", r, "\n", string(debug.Stack()))
			}
		}()
		fn()
	}()
}

func SafeGoWithPanic(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				monitoring.IncreasePanicCount()
				logx.Error("PANIC", "Panic in: ", name, " ", r, "\n", string(debug.Stack()))
				os.Exit(1)
			}
		}()
		fn()
	}()
}
