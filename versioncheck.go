package eventry

// IsVersionCorrect implements the optimistic-concurrency decision table:
//
//	expected            | actual=NoStream | actual=NoEventVersion | actual=v>=0
//	--------------------|-----------------|-----------------------|-------------
//	Any                 | true            | true                  | true
//	Exists              | false           | true                  | true
//	NoStream            | true            | false                 | false
//	concrete NoEventVer | true            | true                  | false
//	concrete v'         | false           | v' == -1              | v' == v
//
// actualFn is only invoked when expected is not Any, so callers can pass a
// closure that queries the backend lazily and avoid a round trip when no
// check is needed.
func IsVersionCorrect(expected ExpectedVersion, actualFn func() StreamActual) bool {
	if expected.IsAny() {
		return true
	}

	actual := actualFn()

	switch {
	case expected.IsExists():
		return actual.Exists
	case expected.IsNoStream():
		return !actual.Exists
	case expected.IsConcrete() && expected.Version() == NoEventVersion:
		return !actual.Exists || actual.Version == NoEventVersion
	case expected.IsConcrete():
		return actual.Exists && actual.Version == expected.Version()
	default:
		return false
	}
}
