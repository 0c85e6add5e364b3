package driver

var IndexQueries = []string{
	"CREATE INDEX ON :Archetype(id);",
	"CREATE INDEX ON :Content(id);",
	"CREATE INDEX ON :Creator(username);",
}

const (
	ListArchetypesQuery = `
		MATCH (a:Archetype)
		OPTIONAL MATCH (a)-[:RELATED_TO]-(r:Archetype)
		RETURN a.id AS id,
			a.label AS label,
			a.description AS description,
			a.keywords AS keywords,
			a.color AS color,
			a.influence_score AS influence_score,
			a.platforms_seen AS platforms_seen,
			collect(DISTINCT r.id) AS related
		ORDER BY a.label
	`

	ArchetypeContentStatsQuery = `
		MATCH (c:Content)-[:CLASSIFIED_AS]->(a:Archetype {id: $id})
		RETURN count(c) AS content_count,
			coalesce(avg(c.engagement), 0.0) AS avg_engagement
	`

	SaveContentQuery = `
		MERGE (c:Content {id: $id})
		SET c.platform = $platform,
			c.text = $text,
			c.caption = $caption,
			c.hashtags = $hashtags,
			c.timestamp = $timestamp,
			c.engagement = $engagement,
			c.is_new_archetype = $is_new_archetype,
			c.suggested_archetype = $suggested_archetype
		WITH c
		FOREACH (_ IN CASE WHEN $creator <> '' THEN [1] ELSE [] END |
			MERGE (u:Creator {username: $creator})
			MERGE (u)-[:POSTED]->(c)
		)
		RETURN c.id AS id
	`

	ClassifyContentQuery = `
		MATCH (c:Content {id: $content_id})
		MATCH (a:Archetype {id: $archetype_id})
		MERGE (c)-[r:CLASSIFIED_AS]->(a)
		SET r.score = $score,
			r.textual_match = $textual_match,
			r.hashtag_match = $hashtag_match,
			r.contextual_relevance = $contextual_relevance,
			r.classified_at = $classified_at
		WITH a
		SET a.platforms_seen = CASE
			WHEN $platform IN coalesce(a.platforms_seen, []) THEN a.platforms_seen
			ELSE coalesce(a.platforms_seen, []) + $platform
		END
		RETURN a.id AS id
	`

	SaveProposalQuery = `
		MERGE (a:Archetype {id: $id})
		SET a.label = $label,
			a.description = $description,
			a.keywords = $keywords,
			a.color = $color,
			a.influence_score = coalesce(a.influence_score, 0.0),
			a.status = 'emerging',
			a.confidence = $confidence,
			a.first_detected = $first_detected
		WITH a
		UNWIND $examples AS example_id
		MATCH (c:Content {id: example_id})
		MERGE (c)-[:EXEMPLIFIES]->(a)
		RETURN count(c) AS linked
	`

	UpdateInfluenceScoreQuery = `
		MATCH (a:Archetype {id: $id})
		SET a.influence_score = $score,
			a.scored_at = $scored_at
		RETURN a.id AS id
	`
)
