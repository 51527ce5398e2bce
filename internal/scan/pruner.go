package scan

import "github.com/tunetrace/tunetrace/pkg/models"

// Prune collapses candidate tags clustered in time. Tags arrive in
// emission order (ascending DataPosition). A tag within radius ms of the
// current cluster's representative joins the cluster; the representative
// is the member with the higher Similarity, ties going to the earlier
// position. Cluster representatives come back in ascending position.
func Prune(tags []models.Tag, radius int64) []models.Tag {
	if len(tags) == 0 {
		return nil
	}
	if radius <= 0 {
		radius = DefaultPruneRadiusMs
	}

	pruned := make([]models.Tag, 0, len(tags))
	rep := tags[0]
	for _, tag := range tags[1:] {
		if tag.DataPosition-rep.DataPosition <= radius {
			if tag.Similarity > rep.Similarity {
				rep = tag
			}
			continue
		}
		pruned = append(pruned, rep)
		rep = tag
	}
	return append(pruned, rep)
}
