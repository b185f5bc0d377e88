package sqlinline

const QInsertProject = `--sql 2c72b38f-ab15-4ae2-8c87-c3ce4966ca62
insert into projects (id, user_id, title, category, description, image_url, created_at)
values (gen_random_uuid(), $1::uuid, $2::text, $3::text, $4::text, $5::text, now())
returning id, created_at;
`

const QSelectProjectByID = `--sql 4c664f74-56aa-458e-a166-bcaba7096379
select id, user_id, title, category, description, image_url, created_at
from projects
where id = $1::uuid
limit 1;
`

// Summary rows: project columns, supporters_count, is_supported for the viewer
// ($1, empty for anonymous).
const QListProjects = `--sql f8ca9ed3-442e-4539-b56f-ea7aa23c31ed
select p.id, p.user_id, p.title, p.category, p.description, p.image_url, p.created_at,
       (select count(*) from supports s where s.project_id = p.id) as supporters_count,
       exists (
           select 1 from supports s
           where s.project_id = p.id and s.user_id = nullif($1::text, '')::uuid
       ) as is_supported
from projects p
order by p.created_at desc
limit $2::int;
`

const QSelectProjectSummary = `--sql f8ccee1d-876a-40cc-bbc3-c982d9402b44
select p.id, p.user_id, p.title, p.category, p.description, p.image_url, p.created_at,
       (select count(*) from supports s where s.project_id = p.id) as supporters_count,
       exists (
           select 1 from supports s
           where s.project_id = p.id and s.user_id = nullif($1::text, '')::uuid
       ) as is_supported
from projects p
where p.id = $2::uuid
limit 1;
`

const QUpdateProject = `--sql d70dba3d-f01e-4022-a9c2-08a3492b7f6c
update projects
set title = $2::text,
    category = $3::text,
    description = $4::text,
    image_url = $5::text
where id = $1::uuid;
`

const QDeleteProject = `--sql f51baa87-a998-400c-9fe8-ef682f8c2699
delete from projects
where id = $1::uuid;
`

const QListProjectsByCreator = `--sql f6c22101-350a-48bb-83c7-38bc9e1038f7
select p.id, p.user_id, p.title, p.category, p.description, p.image_url, p.created_at,
       (select count(*) from supports s where s.project_id = p.id) as supporters_count,
       exists (
           select 1 from supports s
           where s.project_id = p.id and s.user_id = $1::uuid
       ) as is_supported
from projects p
where p.user_id = $1::uuid
order by p.created_at desc
limit $2::int;
`

const QListProjectsSupportedBy = `--sql 80891b5b-b1cb-4383-9ad0-4f449a9c24fd
select p.id, p.user_id, p.title, p.category, p.description, p.image_url, p.created_at,
       (select count(*) from supports s where s.project_id = p.id) as supporters_count,
       true as is_supported
from projects p
join supports mine on mine.project_id = p.id and mine.user_id = $1::uuid
order by mine.supported_at desc
limit $2::int;
`

// Reach counts supports received across the user's own projects.
const QSelectUserProjectStats = `--sql 5c5eaa52-e419-42dc-bc9c-e69d16f9ffd9
select
    (select count(*) from projects where user_id = $1::uuid) as projects_created,
    (select count(*) from supports where user_id = $1::uuid) as projects_supported,
    (select count(*)
       from supports s
       join projects p on p.id = s.project_id
      where p.user_id = $1::uuid) as reach;
`
