package spatial

import (
	"errors"
	"testing"

	"github.com/jaennil/guide_helper/backend/mapcore/internal/domain"
	"github.com/jaennil/guide_helper/backend/mapcore/pkg/logger"
)

func selection(minLat, minLon, maxLat, maxLon float64) domain.SelectionBounds {
	return domain.SelectionBounds{
		NW: domain.GeoPoint{Lat: maxLat, Lon: minLon},
		NE: domain.GeoPoint{Lat: maxLat, Lon: maxLon},
		SW: domain.GeoPoint{Lat: minLat, Lon: minLon},
		SE: domain.GeoPoint{Lat: minLat, Lon: maxLon},
	}
}

func TestAddFileRejectsEmpty(t *testing.T) {
	idx := NewIndex(logger.NewNop())
	err := idx.AddFile("f", nil)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("AddFile(empty) error = %v, want ErrInvalidInput", err)
	}
	if idx.Len() != 0 {
		t.Fatal("empty file must not be stored")
	}
}

func TestQueryReturnsPointsInside(t *testing.T) {
	idx := NewIndex(logger.NewNop())
	pts := []domain.GeoPoint{{Lat: 10, Lon: 10}, {Lat: 20, Lon: 20}}
	if err := idx.AddFile("f", pts); err != nil {
		t.Fatalf("AddFile: %v", err)
	}

	got := idx.QueryPointsInBounds(selection(5, 5, 25, 25))
	if len(got) != 2 || got[0] != pts[0] || got[1] != pts[1] {
		t.Fatalf("query = %v, want %v", got, pts)
	}
}

func TestQueryIncludesEdges(t *testing.T) {
	idx := NewIndex(logger.NewNop())
	idx.AddFile("f", []domain.GeoPoint{{Lat: 5, Lon: 5}, {Lat: 25, Lon: 25}, {Lat: 26, Lon: 25}})

	got := idx.QueryPointsInBounds(selection(5, 5, 25, 25))
	if len(got) != 2 {
		t.Fatalf("query = %v, want the two edge points", got)
	}
}

func TestDisjointFileIsNotScanned(t *testing.T) {
	idx := NewIndex(logger.NewNop())
	idx.AddFile("inside", []domain.GeoPoint{{Lat: 10, Lon: 10}, {Lat: 11, Lon: 11}})
	idx.AddFile("outside", []domain.GeoPoint{{Lat: -40, Lon: 100}, {Lat: -41, Lon: 101}})

	got := idx.QueryPointsInBounds(selection(5, 5, 25, 25))
	if len(got) != 2 {
		t.Fatalf("query returned %d points, want 2", len(got))
	}

	st := idx.Stats()
	if st.FilesScanned != 1 || st.FilesRejected != 1 {
		t.Fatalf("stats = %+v, want 1 scanned and 1 rejected", st)
	}
}

func TestQueryOrderFollowsInsertion(t *testing.T) {
	idx := NewIndex(logger.NewNop())
	idx.AddFile("b", []domain.GeoPoint{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}})
	idx.AddFile("a", []domain.GeoPoint{{Lat: 3, Lon: 3}})
	idx.AddFile("c", []domain.GeoPoint{{Lat: 1, Lon: 1}})

	got := idx.QueryPointsInBounds(selection(0, 0, 10, 10))
	want := []domain.GeoPoint{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}, {Lat: 3, Lon: 3}, {Lat: 1, Lon: 1}}
	if len(got) != len(want) {
		t.Fatalf("query = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("query[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	// re-adding keeps the original position
	idx.AddFile("b", []domain.GeoPoint{{Lat: 4, Lon: 4}})
	files := idx.Files()
	if files[0].ID != "b" || files[0].Points != 1 {
		t.Fatalf("files = %+v, want b first with 1 point", files)
	}
}

func TestRemoveFile(t *testing.T) {
	idx := NewIndex(logger.NewNop())
	idx.AddFile("f", []domain.GeoPoint{{Lat: 10, Lon: 10}})
	idx.RemoveFile("missing")
	idx.RemoveFile("f")

	if idx.Len() != 0 {
		t.Fatalf("Len = %d after remove", idx.Len())
	}
	if got := idx.QueryPointsInBounds(selection(0, 0, 20, 20)); len(got) != 0 {
		t.Fatalf("query after remove = %v", got)
	}
}

func TestFileBoundsAreExact(t *testing.T) {
	idx := NewIndex(logger.NewNop())
	idx.AddFile("f", []domain.GeoPoint{{Lat: 3, Lon: -7}, {Lat: -2, Lon: 4}, {Lat: 1, Lon: 0}})

	got := idx.Files()[0].Bounds
	want := domain.BoundingBox{MinLat: -2, MaxLat: 3, MinLon: -7, MaxLon: 4}
	if got != want {
		t.Fatalf("bounds = %+v, want %+v", got, want)
	}
}

func TestQueryDoesNotMutateFiles(t *testing.T) {
	idx := NewIndex(logger.NewNop())
	pts := []domain.GeoPoint{{Lat: 10, Lon: 10}}
	idx.AddFile("f", pts)
	pts[0].Lat = 99

	got := idx.QueryPointsInBounds(selection(5, 5, 25, 25))
	if len(got) != 1 || got[0].Lat != 10 {
		t.Fatalf("index must keep its own copy of points, got %v", got)
	}
}
