package engine

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/brightcart/recommendation-engine/internal/domain"
	"github.com/brightcart/recommendation-engine/internal/feature"
)

const (
	// minInteractingUsers gates the interaction-based similarity: below this
	// the signal is noise and the content fallback applies.
	minInteractingUsers = 2

	// Content fallback blend: mostly TF-IDF cosine, nudged by how close the
	// two prices are.
	contentCosineWeight  = 0.8
	priceProximityWeight = 0.2

	rebuildWorkers = 4
)

type SimilarityStore interface {
	UpsertSimilarities(ctx context.Context, pairs []domain.ProductSimilarity) error
	TopSimilar(ctx context.Context, productID int64, k int) ([]domain.SimilarityEntry, error)
}

// RebuildSimilarities recomputes the pairwise similarity table from a
// snapshot of the catalog and interaction log. Pairs are stored once with the
// lower product id first; scores at or below the floor are skipped; writes go
// out in conflict-ignoring batches so a crashed or concurrent run leaves the
// table consistent.
func (e *Engine) RebuildSimilarities(ctx context.Context) (int, error) {
	start := time.Now()

	products, err := e.store.ListProducts(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch products: %w", err)
	}
	if len(products) < 2 {
		return 0, nil
	}
	interactions, err := e.store.ListInteractions(ctx, time.Time{})
	if err != nil {
		return 0, fmt.Errorf("fetch interactions: %w", err)
	}

	matrix := BuildInteractionMatrix(interactions)
	fm := e.extractor.Fit(products)
	e.storeFeatureMatrix(fm)

	prices := make(map[int64]float64, len(products))
	ids := make([]int64, len(products))
	for i, p := range products {
		ids[i] = p.ID
		prices[p.ID] = p.Price
	}
	// Row index order is the stable ascending-id order from the matrix
	// bijection source; sort explicitly since products may arrive unordered.
	sortInt64s(ids)

	rows := make([][]domain.ProductSimilarity, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rebuildWorkers)
	for i := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var pairs []domain.ProductSimilarity
			for j := i + 1; j < len(ids); j++ {
				score := e.pairScore(matrix, fm, prices, ids[i], ids[j])
				if score <= e.floor {
					continue
				}
				pairs = append(pairs, domain.ProductSimilarity{
					ProductAID: ids[i],
					ProductBID: ids[j],
					Score:      score,
				})
			}
			rows[i] = pairs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	persisted := 0
	batch := make([]domain.ProductSimilarity, 0, e.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := e.store.UpsertSimilarities(ctx, batch); err != nil {
			return fmt.Errorf("persist similarity batch: %w", err)
		}
		persisted += len(batch)
		batch = batch[:0]
		return nil
	}
	for _, pairs := range rows {
		for _, p := range pairs {
			batch = append(batch, p)
			if len(batch) >= e.batchSize {
				if err := flush(); err != nil {
					return persisted, err
				}
			}
		}
	}
	if err := flush(); err != nil {
		return persisted, err
	}

	log.Printf("[engine] similarity rebuild: %d products, %d pairs persisted in %s",
		len(ids), persisted, time.Since(start).Round(time.Millisecond))
	return persisted, nil
}

// pairScore scores one unordered product pair. Interaction-based cosine wins
// when both items have enough distinct interacting users; otherwise the
// content fallback applies.
func (e *Engine) pairScore(matrix *InteractionMatrix, fm *feature.Matrix, prices map[int64]float64, a, b int64) float64 {
	if matrix.DistinctUsers(a) >= minInteractingUsers && matrix.DistinctUsers(b) >= minInteractingUsers {
		return domain.ClampScore(columnCosine(matrix.ItemUsers(a), matrix.ItemUsers(b)))
	}
	va, _ := fm.Vector(a)
	vb, _ := fm.Vector(b)
	cos := feature.Cosine(va, vb)
	if cos <= 0 {
		return 0
	}
	return domain.ClampScore(contentCosineWeight*cos + priceProximityWeight*priceProximity(prices[a], prices[b]))
}

// priceProximity is 1 for identical prices, falling off linearly with the
// relative gap. Unknown or zero prices contribute nothing.
func priceProximity(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	max := a
	if b > max {
		max = b
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return 1 - diff/max
}

func sortInt64s(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
