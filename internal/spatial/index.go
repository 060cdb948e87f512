// Package spatial stores the point sets of loaded track files and answers
// "which points fall inside this rectangle" queries.
//
// Files are indexed by bounding box in an R-tree so a query only scans the
// points of files whose box overlaps the selection. The index is not safe
// for concurrent use; callers serialize access.
package spatial

import (
	"fmt"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/jaennil/guide_helper/backend/mapcore/internal/domain"
	"github.com/jaennil/guide_helper/backend/mapcore/pkg/logger"
	"github.com/jaennil/guide_helper/backend/mapcore/pkg/metrics"
	"github.com/paulmach/orb"
)

// R-tree rectangles need non-zero extent; single-point files and
// degenerate selections are padded by this many degrees.
const epsilon = 0.0001

type record struct {
	id     string
	seq    uint64
	points []domain.GeoPoint
	bound  orb.Bound
}

// Bounds implements rtreego.Spatial.
func (r *record) Bounds() rtreego.Rect {
	return toRect(r.bound)
}

// FileInfo describes a loaded file.
type FileInfo struct {
	ID     string             `json:"id"`
	Points int                `json:"points"`
	Bounds domain.BoundingBox `json:"bounds"`
}

// Stats counts the outcome of the bounding box test across all queries.
type Stats struct {
	FilesScanned  int `json:"files_scanned"`
	FilesRejected int `json:"files_rejected"`
}

type Index struct {
	tree    *rtreego.Rtree
	files   map[string]*record
	nextSeq uint64
	stats   Stats
	logger  logger.Logger
}

func NewIndex(l logger.Logger) *Index {
	return &Index{
		tree:   rtreego.NewTree(2, 25, 50),
		files:  make(map[string]*record),
		logger: l,
	}
}

// AddFile stores a copy of points under id. Adding an id that is already
// present replaces its points but keeps its position in query order.
func (idx *Index) AddFile(id string, points []domain.GeoPoint) error {
	if len(points) == 0 {
		return fmt.Errorf("%w: file %q has no points", domain.ErrInvalidInput, id)
	}

	mp := make(orb.MultiPoint, len(points))
	for i, p := range points {
		mp[i] = p.Point()
	}

	rec := &record{
		id:     id,
		points: append([]domain.GeoPoint(nil), points...),
		bound:  mp.Bound(),
	}

	if old, ok := idx.files[id]; ok {
		idx.tree.Delete(old)
		rec.seq = old.seq
	} else {
		rec.seq = idx.nextSeq
		idx.nextSeq++
	}

	idx.files[id] = rec
	idx.tree.Insert(rec)
	metrics.LoadedFiles.Set(float64(len(idx.files)))

	idx.logger.Debug("file indexed", "id", id, "points", len(points), "bounds", domain.BoundingBoxFromBound(rec.bound))
	return nil
}

// RemoveFile drops id. Unknown ids are ignored.
func (idx *Index) RemoveFile(id string) {
	rec, ok := idx.files[id]
	if !ok {
		return
	}
	idx.tree.Delete(rec)
	delete(idx.files, id)
	metrics.LoadedFiles.Set(float64(len(idx.files)))

	idx.logger.Debug("file removed", "id", id)
}

// QueryPointsInBounds returns every stored point inside the bounding
// rectangle of sel, edges included, ordered by file insertion and then by
// the original point order.
func (idx *Index) QueryPointsInBounds(sel domain.SelectionBounds) []domain.GeoPoint {
	box := sel.BoundingBox().Bound()

	var candidates []*record
	for _, s := range idx.tree.SearchIntersect(toRect(box)) {
		rec := s.(*record)
		if rec.bound.Intersects(box) {
			candidates = append(candidates, rec)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].seq < candidates[j].seq
	})

	rejected := len(idx.files) - len(candidates)
	idx.stats.FilesScanned += len(candidates)
	idx.stats.FilesRejected += rejected
	metrics.SpatialFilesScanned.Add(float64(len(candidates)))
	metrics.SpatialFilesRejected.Add(float64(rejected))

	var result []domain.GeoPoint
	for _, rec := range candidates {
		for _, p := range rec.points {
			if box.Contains(p.Point()) {
				result = append(result, p)
			}
		}
	}

	idx.logger.Debug("bounds query", "scanned", len(candidates), "rejected", rejected, "points", len(result))
	return result
}

// Files lists loaded files in insertion order.
func (idx *Index) Files() []FileInfo {
	recs := make([]*record, 0, len(idx.files))
	for _, rec := range idx.files {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].seq < recs[j].seq
	})

	infos := make([]FileInfo, len(recs))
	for i, rec := range recs {
		infos[i] = FileInfo{
			ID:     rec.id,
			Points: len(rec.points),
			Bounds: domain.BoundingBoxFromBound(rec.bound),
		}
	}
	return infos
}

func (idx *Index) Len() int {
	return len(idx.files)
}

func (idx *Index) Stats() Stats {
	return idx.stats
}

// toRect converts b to an R-tree rectangle padded by epsilon on each side.
func toRect(b orb.Bound) rtreego.Rect {
	point := rtreego.Point{b.Min.Lon() - epsilon, b.Min.Lat() - epsilon}
	lengths := []float64{
		b.Max.Lon() - b.Min.Lon() + 2*epsilon,
		b.Max.Lat() - b.Min.Lat() + 2*epsilon,
	}
	rect, _ := rtreego.NewRect(point, lengths)
	return rect
}
