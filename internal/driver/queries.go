package driver

const (
	// PutEventQuery claims the dedup key for $id (or takes over an expired one)
	// and writes the event only if the claim is ours. No row back means another
	// live event already owns the key. A ttl of 0 never expires.
	PutEventQuery = `
		MERGE (k:DedupKey {key_hash: $key_hash})
		ON CREATE SET k.event_id = $id, k.ttl = $ttl
		ON MATCH SET k.event_id = CASE WHEN k.ttl > 0 AND k.ttl <= $now THEN $id ELSE k.event_id END,
			k.ttl = CASE WHEN k.ttl > 0 AND k.ttl <= $now THEN $ttl ELSE k.ttl END
		WITH k
		WHERE k.event_id = $id
		MERGE (e:DisasterEvent {id: $id})
		SET e.text = $text,
			e.author = $author,
			e.location = $location,
			e.lat = $lat,
			e.lon = $lon,
			e.event_type = $event_type,
			e.verified = $verified,
			e.disaster_score = $disaster_score,
			e.created_at = $created_at,
			e.ttl = $ttl,
			e.platform = $platform,
			e.url = $url,
			e.source_post_id = $source_post_id,
			e.classifier_tier = $classifier_tier
		MERGE (k)-[:IDENTIFIES]->(e)
		RETURN e.id AS id
	`

	eventReturn = `
		RETURN e.id AS id, e.text AS text, e.author AS author, e.location AS location,
			e.lat AS lat, e.lon AS lon, e.event_type AS event_type, e.verified AS verified,
			e.disaster_score AS disaster_score, e.created_at AS created_at, e.ttl AS ttl,
			e.platform AS platform, e.url AS url, e.source_post_id AS source_post_id,
			e.classifier_tier AS classifier_tier
	`

	FindEventByKeyQuery = `
		MATCH (k:DedupKey {key_hash: $key_hash})-[:IDENTIFIES]->(e:DisasterEvent)
		WHERE e.author = $author AND e.text = $text AND (e.ttl = 0 OR e.ttl > $now)
	` + eventReturn + `
		LIMIT 1
	`

	ScanEventsSinceQuery = `
		MATCH (e:DisasterEvent)
		WHERE e.created_at >= $since AND (e.ttl = 0 OR e.ttl > $now)
	` + eventReturn + `
		ORDER BY created_at DESC
	`

	GetEventQuery = `
		MATCH (e:DisasterEvent {id: $id})
	` + eventReturn

	DeleteExpiredKeysQuery = `
		MATCH (k:DedupKey)
		WHERE k.ttl > 0 AND k.ttl <= $now
		DETACH DELETE k
	`

	DeleteExpiredEventsQuery = `
		MATCH (e:DisasterEvent)
		WHERE e.ttl > 0 AND e.ttl <= $now
		DETACH DELETE e
		RETURN count(*) AS removed
	`
)
