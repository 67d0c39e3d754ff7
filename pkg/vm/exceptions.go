package vm

import (
	"errors"
	"fmt"
	"log/slog"
)

const debugExceptions = false

// ExceptionError is the Go error carrying a thrown script value. Every failing
// operation returns one after recording the value as the VM's pending exception.
type ExceptionError struct {
	value Value
}

func (e *ExceptionError) Value() Value { return e.value }

func (e *ExceptionError) Error() string {
	return describeThrown(e.value)
}

// describeThrown renders a thrown value as "Name: message" for error objects
func describeThrown(v Value) string {
	if !v.IsObject() {
		return "Uncaught " + v.Inspect()
	}
	o := v.AsObject()
	if o.Class() != "Error" {
		return "Uncaught " + v.Inspect()
	}
	name := o.GetWithoutSideEffects(nameKey)
	msg := o.GetWithoutSideEffects(NewStringKey("message"))
	nameStr := "Error"
	if name.IsString() {
		nameStr = name.AsString()
	}
	if msg.IsString() && msg.AsString() != "" {
		return nameStr + ": " + msg.AsString()
	}
	return nameStr
}

// AsException extracts the thrown value from err, if it carries one
func AsException(err error) (Value, bool) {
	var ex *ExceptionError
	if errors.As(err, &ex) {
		return ex.value, true
	}
	return Undefined, false
}

// Throw records v as the pending exception and returns the error to propagate
func (vm *VM) Throw(v Value) error {
	vm.exception = v
	if debugExceptions {
		fmt.Printf("[DEBUG exceptions] throw %s\n", v.Inspect())
	}
	vm.logger.Debug("exception thrown", slog.String("value", describeThrown(v)))
	return &ExceptionError{value: v}
}

// ThrowError creates a native error of kind in the running realm and throws it
func (vm *VM) ThrowError(kind ErrorKind, format string, args ...any) error {
	return vm.Throw(ObjectValue(vm.CurrentRealm().NewError(kind, fmt.Sprintf(format, args...))))
}

func (vm *VM) ThrowTypeError(format string, args ...any) error {
	return vm.ThrowError(ErrorKindTypeError, format, args...)
}

func (vm *VM) ThrowRangeError(format string, args ...any) error {
	return vm.ThrowError(ErrorKindRangeError, format, args...)
}

func (vm *VM) ThrowInternalError(format string, args ...any) error {
	return vm.ThrowError(ErrorKindInternalError, format, args...)
}

// Exception returns the pending exception, if any
func (vm *VM) Exception() (Value, bool) {
	if vm.exception.IsEmpty() {
		return Undefined, false
	}
	return vm.exception, true
}

// ClearException drops the pending exception, as a catch handler does
func (vm *VM) ClearException() { vm.exception = Empty }

// allocationFailure turns a shape or storage limit error into an InternalError
func (vm *VM) allocationFailure(err error) error {
	return vm.ThrowInternalError("%s", err.Error())
}

// normalizeError makes sure host errors surface as thrown script values
func (vm *VM) normalizeError(err error) error {
	var ex *ExceptionError
	if errors.As(err, &ex) {
		return err
	}
	return vm.ThrowInternalError("%s", err.Error())
}
