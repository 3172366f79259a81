package vm_test

import "testing"

// These scenarios assert the VM's heap is empty once a program finishes
// running — every string/closure allocated during execution was released
// by its owning scope's decrement, with none left over-retained (a leak)
// or released early (a premature release panics when the freed object is
// next read, since Heap.Get returns nil for a free slot).

func TestHeapRCStringDeclaration(t *testing.T) {
	_, machine := run(t, `
		var s = "hello";
		print s;
	`)
	if live := machine.Heap().CountLive(); live != 0 {
		t.Errorf("got %d live heap objects after scope exit, want 0", live)
	}
}

func TestHeapRCReassignment(t *testing.T) {
	_, machine := run(t, `
		var s = "a";
		s = "b";
		s = "c";
		print s;
	`)
	if live := machine.Heap().CountLive(); live != 0 {
		t.Errorf("got %d live heap objects after scope exit, want 0", live)
	}
}

func TestHeapRCChainedSelfAssignment(t *testing.T) {
	_, machine := run(t, `
		var a = "s";
		var b = a;
		var c = a;
		a = a = a = a;
		print a;
	`)
	if live := machine.Heap().CountLive(); live != 0 {
		t.Errorf("got %d live heap objects after scope exit, want 0", live)
	}
}

func TestHeapRCAliasedAssignment(t *testing.T) {
	_, machine := run(t, `
		var a = "shared";
		var b = a;
		print b;
	`)
	if live := machine.Heap().CountLive(); live != 0 {
		t.Errorf("got %d live heap objects after scope exit, want 0", live)
	}
}

func TestHeapRCNestedScopes(t *testing.T) {
	_, machine := run(t, `
		var outer = "outer";
		{
			var inner = "inner";
			print inner;
		}
		print outer;
	`)
	if live := machine.Heap().CountLive(); live != 0 {
		t.Errorf("got %d live heap objects after scope exit, want 0", live)
	}
}

func TestHeapRCCombinedScopes(t *testing.T) {
	_, machine := run(t, `
		var a = "a";
		{
			var b = a;
			{
				var c = b;
				print c;
			}
			print b;
		}
		print a;
	`)
	if live := machine.Heap().CountLive(); live != 0 {
		t.Errorf("got %d live heap objects after scope exit, want 0", live)
	}
}

func TestHeapRCExpressionStatement(t *testing.T) {
	_, machine := run(t, `
		fun identity(s str) str { return s; }
		identity("discarded");
	`)
	if live := machine.Heap().CountLive(); live != 0 {
		t.Errorf("got %d live heap objects after scope exit, want 0", live)
	}
}

func TestHeapRCFunctionReturn(t *testing.T) {
	_, machine := run(t, `
		fun makeGreeting() str { return "hi"; }
		var g = makeGreeting();
		print g;
	`)
	if live := machine.Heap().CountLive(); live != 0 {
		t.Errorf("got %d live heap objects after scope exit, want 0", live)
	}
}

func TestHeapRCFunctionArgument(t *testing.T) {
	_, machine := run(t, `
		fun show(s str) { print s; }
		var local = "arg";
		show(local);
		print local;
	`)
	if live := machine.Heap().CountLive(); live != 0 {
		t.Errorf("got %d live heap objects after scope exit, want 0", live)
	}
}

func TestHeapRCFunctionReturnOfArgument(t *testing.T) {
	_, machine := run(t, `
		fun identity(s str) str { return s; }
		var local = "bounce";
		var result = identity(local);
		print result;
		print local;
	`)
	if live := machine.Heap().CountLive(); live != 0 {
		t.Errorf("got %d live heap objects after scope exit, want 0", live)
	}
}

func TestHeapRCClosureCapture(t *testing.T) {
	_, machine := run(t, `
		fun makeCounter() {
			var n = 0.0;
			var inc = fun() float {
				n = n + 1.0;
				return n;
			};
			print inc();
		}
		makeCounter();
	`)
	if live := machine.Heap().CountLive(); live != 0 {
		t.Errorf("got %d live heap objects after scope exit, want 0", live)
	}
}

func TestHeapRCClosureReassignment(t *testing.T) {
	_, machine := run(t, `
		fun run() {
			var a = 1.0;
			var b = 2.0;
			var f = fun() float { return a; };
			f = fun() float { return b; };
			print f();
		}
		run();
	`)
	if live := machine.Heap().CountLive(); live != 0 {
		t.Errorf("got %d live heap objects after scope exit, want 0", live)
	}
}
