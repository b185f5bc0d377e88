package sqlinline

const QInsertDonation = `--sql 9b53752a-1ec2-435a-92d7-5fd0dbb4d93f
insert into donations (id, user_id, project_id, amount, order_id, status, country, created_at, updated_at)
values (gen_random_uuid(), $1::uuid, $2::uuid, $3::numeric, $4::text, 'created', nullif($5::text, ''), now(), now())
returning id, created_at, updated_at;
`

const QSelectDonationByIDAndOrder = `--sql 47544377-ae43-454e-8108-12fa413dcd4f
select d.id, d.user_id, d.project_id, p.title, d.amount::text, d.order_id, d.payment_id,
       d.status, coalesce(d.country, ''), d.created_at, d.updated_at
from donations d
join projects p on p.id = d.project_id
where d.id = $1::uuid and d.order_id = $2::text
limit 1;
`

// Only rows still in the created state move; a terminal row is left untouched
// and the statement reports zero affected rows.
const QTransitionDonation = `--sql afa0ce0c-cdab-48b0-8b89-4e242e92fec0
update donations
set status = $3::text,
    payment_id = coalesce($4::text, payment_id),
    updated_at = now()
where id = $1::uuid
  and order_id = $2::text
  and status = 'created';
`

const QListDonationsByUser = `--sql 90b61d86-c625-4335-af94-057213762384
select d.id, d.user_id, d.project_id, p.title, d.amount::text, d.order_id, d.payment_id,
       d.status, coalesce(d.country, ''), d.created_at, d.updated_at
from donations d
join projects p on p.id = d.project_id
where d.user_id = $1::uuid
order by d.created_at desc
limit $2::int;
`

const QDonationTotalsByProject = `--sql 407a82df-3513-4f06-ae5e-4b01174d7123
select count(*), coalesce(sum(amount), 0)::text
from donations
where project_id = $1::uuid and status = 'paid';
`
