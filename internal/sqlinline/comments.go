package sqlinline

const QInsertComment = `--sql 73bdc721-a0f1-47fe-ad3b-2e48cf874e06
insert into comments (id, project_id, user_id, comment_text, created_at)
values (gen_random_uuid(), $1::uuid, $2::uuid, $3::text, now())
returning id, created_at;
`

const QListCommentsByProject = `--sql 69b27bf0-a4c3-4d84-8b78-954a1c84fd53
select c.id, c.project_id, c.user_id, c.comment_text, c.created_at,
       u.username, u.email, u.first_name, u.last_name
from comments c
join users u on u.id = c.user_id
where c.project_id = $1::uuid
order by c.created_at asc;
`
